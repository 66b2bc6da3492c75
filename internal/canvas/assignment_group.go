package canvas

import (
	"context"
	"fmt"
)

const report_assignment_group_get_assignments = "assignment-group.get-assignments"

type AssignmentGroup struct {
	Entity

	Name        string   `json:"name"`
	Position    int      `json:"position"`
	GroupWeight *float64 `json:"group_weight"`
}

func newAssignmentGroup(course *Course, raw []byte) (*AssignmentGroup, error) {
	g := &AssignmentGroup{}
	g.Kind = KindAssignmentGroup
	inherit(&g.Entity, course)
	inheritCourse(&g.Entity, course)

	err := hydrate(&g.Entity, raw, g)
	if err != nil {
		return nil, err
	}
	g.InfoKeys = []string{"course_id", "course_name", "name", "group_weight"}
	return g, nil
}

func (g *AssignmentGroup) String() string {
	courseId, _ := g.Int("course_id")
	return fmt.Sprintf("%s [Course ID: %d]: %d \t %s", g.Kind, courseId, g.Id(), g.Name)
}

// Assignments gets the assignments that belong to the group.
//
// Endpoint: /courses/{course_id}/assignment_groups/{assignment_group_id}/assignments
func (g *AssignmentGroup) Assignments(ctx context.Context) (map[int64]*Assignment, error) {
	courseId, _ := g.Int("course_id")
	raws, err := g.ctx.getList(
		ctx,
		g.ctx.endpoint("/courses/%d/assignment_groups/%d/assignments", courseId, g.Id()),
		perPage(100),
	)
	if err != nil {
		g.ctx.tel.ReportBroken(report_assignment_group_get_assignments, err, g.Id())
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Assignment, error) {
		return newAssignment(g, raw)
	})
}
