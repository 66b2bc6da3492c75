package canvas

import (
	"fmt"
)

// assignmentInfoKeys are copied from an assignment onto its submissions with an
// `assignment_` prefix.
var assignmentInfoKeys = []string{
	"description",
	"description_text",
	"due_at",
	"due_at_display",
	"due_at_dt",
	"due_at_localtime",
	"group_id",
	"html_url",
	"name",
	"points_possible",
}

type Submission struct {
	Entity

	AssignmentID  int64    `json:"assignment_id"`
	UserID        int64    `json:"user_id"`
	Score         *float64 `json:"score"`
	Grade         *string  `json:"grade"`
	Late          bool     `json:"late"`
	Missing       bool     `json:"missing"`
	Excused       *bool    `json:"excused"`
	WorkflowState string   `json:"workflow_state"`
	SubmittedAt   *string  `json:"submitted_at"`

	// PercentScore is filled by AddAssignmentInfo.
	PercentScore float64 `json:"-"`
}

func newSubmission(parent node, raw []byte) (*Submission, error) {
	s := &Submission{}
	s.Kind = KindSubmission

	switch p := parent.(type) {
	case *Assignment, *User, *Student:
		inherit(
			&s.Entity, p,
			"course_id", "course_name", "points_possible",
			"due_at", "due_at_dt", "due_at_display", "due_at_localtime",
		)
	default:
		return nil, ErrParentKind{Child: KindSubmission, Parent: parent.entity().Kind}
	}

	err := hydrate(&s.Entity, raw, s)
	if err != nil {
		return nil, err
	}
	s.InfoKeys = []string{
		"course_id", "assignment_group_id", "assignment_id", "assignment_name",
		"user_id", "user_name", "score", "assignment_points_possible",
		"assignment_due_at_display", "late", "missing",
	}

	switch p := parent.(type) {
	case *Assignment:
		s.AddAssignmentInfo(p)
	case *User:
		s.set("user_name", p.Name)
	case *Student:
		s.set("user_name", p.Name)
	}
	return s, nil
}

func (s *Submission) String() string {
	courseId, _ := s.Int("course_id")
	return fmt.Sprintf(
		"%s [Course ID: %d; Assignment ID: %d; User ID: %d]: %d",
		s.Kind, courseId, s.AssignmentID, s.UserID, s.Id(),
	)
}

// AddAssignmentInfo copies the assignment's description, due date, name and points
// possible onto the submission and computes the percent score. Assignments with a
// different id are ignored.
//
// The percent score is score / points possible * 100, it is 0 if the submission has no
// score or the assignment is worth no points.
func (s *Submission) AddAssignmentInfo(a *Assignment) {
	if a.Id() != s.AssignmentID {
		return
	}
	for _, key := range assignmentInfoKeys {
		value, ok := a.Attr(key)
		if !ok {
			continue
		}
		s.set("assignment_"+key, value)
	}

	s.PercentScore = 0
	pointsPossible, ok := s.Float("assignment_points_possible")
	if s.Score != nil && ok && pointsPossible > 0 {
		s.PercentScore = *s.Score / pointsPossible * 100
	}
	s.set("percent_score", s.PercentScore)
}

// AddCourseInfo tags the submission with the id and name of its course.
func (s *Submission) AddCourseInfo(c *Course) {
	s.set("course_id", c.Id())
	s.set("course_name", c.Name)
}
