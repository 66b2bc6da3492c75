package canvas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineage(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	assignment, err := newAssignment(course, []byte(`{
		"id": 7,
		"name": "Lab 1",
		"points_possible": 20,
		"due_at": "2024-03-01T08:00:00Z",
		"assignment_group_id": 3
	}`))
	require.NoError(t, err)

	submission, err := newSubmission(assignment, []byte(`{"id": 900, "assignment_id": 7, "user_id": 5, "score": 15}`))
	require.NoError(t, err)

	require.Len(t, s.Lineage, 0)
	require.Len(t, course.Lineage, 1)
	require.Len(t, assignment.Lineage, 2)
	require.Len(t, submission.Lineage, 3)

	require.Nil(t, course.Lineage[0].ID)
	require.Equal(t, KindSession, course.Lineage[0].Kind)

	parent, ok := submission.Parent()
	require.True(t, ok)
	require.Equal(t, KindAssignment, parent.Kind)
	require.Equal(t, int64(7), *parent.ID)
	require.Equal(t, "Canvas", submission.Lineage[0].String())
	require.Equal(t, "Course(42)", submission.Lineage[1].String())

	// the parent lineage is never extended in place
	require.Len(t, assignment.Lineage, 2)
	require.Equal(t, course.Context(), submission.Context())
}

func TestInheritedFields(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	assignment, err := newAssignment(course, []byte(`{
		"id": 7,
		"name": "Lab 1",
		"points_possible": 20,
		"due_at": "2024-03-01T08:00:00Z"
	}`))
	require.NoError(t, err)

	courseId, ok := assignment.Int("course_id")
	require.True(t, ok)
	require.Equal(t, int64(42), courseId)
	courseName, _ := assignment.Str("course_name")
	require.Equal(t, "Physics", courseName)

	submission, err := newSubmission(assignment, []byte(`{
		"id": 900,
		"assignment_id": 7,
		"user_id": 5,
		"score": 15,
		"points_possible": 99
	}`))
	require.NoError(t, err)

	for _, key := range []string{"course_id", "course_name", "points_possible", "due_at", "due_at_dt", "due_at_display"} {
		_, ok := submission.Inherited(key)
		require.True(t, ok, key)
	}
	// no timezone, so there is no localized time to pass along
	_, ok = submission.Inherited("due_at_localtime")
	require.False(t, ok)

	// the payload shadows the inherited value, the inherited one stays reachable
	pointsPossible, _ := submission.Float("points_possible")
	require.Equal(t, 99.0, pointsPossible)
	inherited, _ := submission.Inherited("points_possible")
	require.Equal(t, 20.0, Normalize(inherited))
}

func TestParentKind(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	_, err := newCourse(course, []byte(`{"id": 1}`))
	var parentErr ErrParentKind
	require.True(t, errors.As(err, &parentErr))
	require.Equal(t, KindCourse, parentErr.Child)
	require.Equal(t, KindCourse, parentErr.Parent)

	_, err = newSubmission(course, []byte(`{"id": 1}`))
	require.True(t, errors.As(err, &parentErr))
	require.Equal(t, KindSubmission, parentErr.Child)
}

func TestCourseMissingName(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	course, err := s.CourseFromJSON([]byte(`{"id": 3, "access_restricted_by_date": true}`))
	require.NoError(t, err)
	require.Equal(t, "N/A", course.Name)
	name, _ := course.Str("name")
	require.Equal(t, "N/A", name)
	require.Contains(t, course.Info(), "name:\tN/A")
}
