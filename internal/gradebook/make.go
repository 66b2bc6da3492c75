package gradebook

import (
	"context"
	"fmt"

	"canvas-access/internal/canvas"
)

// MakeGradebook fetches the students, assignments and assignment groups of a course,
// builds its bundle and scores it by assignment group, weighted by the group weights.
// Clusters are named after the groups.
func MakeGradebook(ctx context.Context, course *canvas.Course, opts BuildOptions) (*GradingBundle, *Gradebook, error) {
	students, err := course.Students(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("students: %w", err)
	}
	assignments, err := course.Assignments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("assignments: %w", err)
	}
	groups, err := course.AssignmentGroups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("assignment groups: %w", err)
	}

	bundle, err := Build(ctx, course, assignments, students, opts)
	if err != nil {
		return nil, nil, err
	}

	named := make(map[int64]Group, len(groups))
	for id, group := range groups {
		named[id] = Group{Name: group.Name, Weight: group.GroupWeight}
	}
	clusters := bundle.GroupClusters(named)

	return bundle, NewGradebook(bundle, clusters), nil
}
