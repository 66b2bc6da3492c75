package canvas

import (
	"context"
	"fmt"

	"canvas-access/pkg/htmlutil"
)

const report_assignment_get_submissions = "assignment.get-submissions"

type Assignment struct {
	Entity

	Name              string   `json:"name"`
	Description       *string  `json:"description"`
	PointsPossible    *float64 `json:"points_possible"`
	DueAt             *string  `json:"due_at"`
	AssignmentGroupID *int64   `json:"assignment_group_id"`
	HtmlUrl           string   `json:"html_url"`
	Published         bool     `json:"published"`
	GradingType       string   `json:"grading_type"`

	// DescriptionText is the description with its markup stripped.
	DescriptionText string `json:"-"`
}

func newAssignment(parent node, raw []byte) (*Assignment, error) {
	a := &Assignment{}
	a.Kind = KindAssignment

	var group *AssignmentGroup
	switch p := parent.(type) {
	case *Course:
		inherit(&a.Entity, p, "assignment_group_id")
		inheritCourse(&a.Entity, p)
	case *AssignmentGroup:
		inherit(&a.Entity, p, "course_id", "course_name")
		a.setInherited("assignment_group_id", p.Id())
		group = p
	default:
		return nil, ErrParentKind{Child: KindAssignment, Parent: parent.entity().Kind}
	}

	err := hydrate(&a.Entity, raw, a)
	if err != nil {
		return nil, err
	}
	if group != nil {
		a.AddAssignmentGroupInfo(group)
	}

	if a.Description != nil {
		a.DescriptionText, err = htmlutil.ToText(*a.Description)
		if err != nil {
			return nil, fmt.Errorf("assignment %d description: %w", a.Id(), err)
		}
	}
	a.set("description_text", a.DescriptionText)

	a.InfoKeys = []string{"course_id", "course_name", "assignment_group_id", "name", "points_possible", "due_at_display"}
	return a, nil
}

func (a *Assignment) String() string {
	courseId, _ := a.Int("course_id")
	groupId, _ := a.Int("assignment_group_id")
	return fmt.Sprintf("%s [Course ID: %d; Assignment Group ID: %d]: %d \t %s", a.Kind, courseId, groupId, a.Id(), a.Name)
}

// AddAssignmentGroupInfo copies the weight and name of the group the assignment belongs
// to, along with its course. Groups with a different id are ignored.
func (a *Assignment) AddAssignmentGroupInfo(group *AssignmentGroup) {
	groupId, ok := a.Int("assignment_group_id")
	if !ok || groupId != group.Id() {
		return
	}
	a.set("assignment_group_weight", group.GroupWeight)
	a.set("assignment_group_name", group.Name)
	for _, key := range []string{"course_id", "course_name"} {
		if value, ok := group.Attr(key); ok {
			a.set(key, value)
		}
	}
}

// Submission gets the submission of a single user.
//
// Endpoint: /courses/{course_id}/assignments/{assignment_id}/submissions/{user_id}
func (a *Assignment) Submission(ctx context.Context, userId int64) (*Submission, error) {
	courseId, _ := a.Int("course_id")
	raw, err := a.ctx.getDetail(
		ctx,
		a.ctx.endpoint("/courses/%d/assignments/%d/submissions/%d", courseId, a.Id(), userId),
		nil,
	)
	if err != nil {
		return nil, err
	}
	return newSubmission(a, raw)
}

// Submissions gets every submission of the assignment.
//
// Endpoint: /courses/{course_id}/assignments/{assignment_id}/submissions
func (a *Assignment) Submissions(ctx context.Context) (map[int64]*Submission, error) {
	courseId, _ := a.Int("course_id")
	raws, err := a.ctx.getList(
		ctx,
		a.ctx.endpoint("/courses/%d/assignments/%d/submissions", courseId, a.Id()),
		perPage(100),
	)
	if err != nil {
		a.ctx.tel.ReportBroken(report_assignment_get_submissions, err, a.Id())
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Submission, error) {
		return newSubmission(a, raw)
	})
}
