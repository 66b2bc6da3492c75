package canvas

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCourseUser(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.respond(http.MethodGet, "/courses/42/users/1", http.StatusOK,
		`{"id": 1, "name": "Ada", "enrollments": [{"id": 1, "type": "StudentEnrollment"}]}`)
	f.respond(http.MethodGet, "/courses/42/users/2", http.StatusOK,
		`{"id": 2, "name": "Ben", "enrollments": [{"id": 2, "type": "TeacherEnrollment"}]}`)
	f.respond(http.MethodGet, "/courses/42/users/3", http.StatusOK,
		`{"id": 3, "name": "Cy", "enrollments": [{"id": 3, "type": "ObserverEnrollment"}]}`)
	f.respond(http.MethodGet, "/courses/42/users/4", http.StatusOK,
		`{"id": 4, "name": "Di", "enrollments": []}`)

	table := []struct {
		id             int64
		enrollmentType string
	}{
		{id: 1, enrollmentType: EnrollmentStudent},
		{id: 2, enrollmentType: EnrollmentTeacher},
		{id: 3, enrollmentType: EnrollmentError},
		{id: 4, enrollmentType: EnrollmentError},
	}
	for _, row := range table {
		u, err := course.User(context.Background(), row.id)
		require.NoError(t, err)
		require.Equal(t, row.enrollmentType, u.EnrollmentType)

		tagged, _ := u.Str("enrollment_type")
		require.Equal(t, row.enrollmentType, tagged)
		courseId, _ := u.Int("course_id")
		require.Equal(t, int64(42), courseId)
	}

	require.Contains(t, f.requestLog(), "GET /api/v1/courses/42/users/1?include%5B%5D=enrollments")
}

func TestCourseUsersDefaultsToStudents(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/courses/42/users", []string{`{"id": 1, "name": "Ada", "sis_user_id": "S1"}`}, 10)

	users, err := course.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, EnrollmentStudent, users[1].EnrollmentType)
	require.Equal(t, "S1", users[1].SisID())

	students, err := course.Students(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, KindStudent, students[1].Kind)
	require.Equal(t, "Ada", students[1].Name)
}

func TestUserSubmissions(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/courses/42/users", []string{`{"id": 1, "name": "Ada"}`}, 10)
	f.paginate("/courses/42/students/submissions", []string{
		`{"id": 100, "assignment_id": 7, "user_id": 1, "score": 9}`,
		`{"id": 101, "assignment_id": 8, "user_id": 1, "score": null}`,
	}, 10)

	students, err := course.Users(context.Background(), EnrollmentStudent)
	require.NoError(t, err)
	submissions, err := students[1].Submissions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, submissions, 2)

	for _, sub := range submissions {
		name, _ := sub.Str("user_name")
		require.Equal(t, "Ada", name)
		parent, _ := sub.Parent()
		require.Equal(t, KindUser, parent.Kind)
	}
	require.Contains(t, f.requestLog(), "GET /api/v1/courses/42/students/submissions?per_page=100&student_ids%5B%5D=1")

	teachers, err := course.Users(context.Background(), EnrollmentTeacher)
	require.NoError(t, err)
	_, err = teachers[1].Submissions(context.Background(), 42)
	require.True(t, errors.Is(err, ErrNotStudent))
}

func TestAssignmentGroups(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/courses/42/assignment_groups", []string{
		`{"id": 3, "name": "Labs", "group_weight": 40}`,
		`{"id": 4, "name": "Exams", "group_weight": 60}`,
	}, 10)
	f.paginate("/courses/42/assignment_groups/3/assignments", []string{
		`{"id": 7, "name": "Lab 1", "points_possible": 10, "assignment_group_id": 3, "description": "<p>Measure <b>g</b></p>"}`,
	}, 10)

	groups, err := course.AssignmentGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, 40.0, *groups[3].GroupWeight)

	assignments, err := groups[3].Assignments(context.Background())
	require.NoError(t, err)
	lab := assignments[7]
	require.NotNil(t, lab)

	weight, _ := lab.Float("assignment_group_weight")
	require.Equal(t, 40.0, weight)
	groupName, _ := lab.Str("assignment_group_name")
	require.Equal(t, "Labs", groupName)
	courseName, _ := lab.Str("course_name")
	require.Equal(t, "Physics", courseName)
	require.Equal(t, "Measure g\n", lab.DescriptionText)

	// groups with another id leave the assignment alone
	lab.AddAssignmentGroupInfo(groups[4])
	groupName, _ = lab.Str("assignment_group_name")
	require.Equal(t, "Labs", groupName)
}

func TestSubmissionPercentScore(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	table := []struct {
		name       string
		assignment string
		submission string
		percent    float64
	}{
		{
			name:       "scored",
			assignment: `{"id": 7, "name": "Lab", "points_possible": 20}`,
			submission: `{"id": 1, "assignment_id": 7, "score": 15}`,
			percent:    75,
		},
		{
			name:       "zero points possible",
			assignment: `{"id": 7, "name": "Lab", "points_possible": 0}`,
			submission: `{"id": 1, "assignment_id": 7, "score": 15}`,
			percent:    0,
		},
		{
			name:       "no score",
			assignment: `{"id": 7, "name": "Lab", "points_possible": 20}`,
			submission: `{"id": 1, "assignment_id": 7, "score": null}`,
			percent:    0,
		},
		{
			name:       "no points possible",
			assignment: `{"id": 7, "name": "Lab"}`,
			submission: `{"id": 1, "assignment_id": 7, "score": 3}`,
			percent:    0,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			a, err := newAssignment(course, []byte(row.assignment))
			require.NoError(t, err)
			sub, err := newSubmission(a, []byte(row.submission))
			require.NoError(t, err)

			require.Equal(t, row.percent, sub.PercentScore)
			percent, ok := sub.Float("percent_score")
			require.True(t, ok)
			require.Equal(t, row.percent, percent)

			name, _ := sub.Str("assignment_name")
			require.Equal(t, "Lab", name)
		})
	}
}

func TestAddAssignmentInfoMismatch(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/courses/42/users", []string{`{"id": 1, "name": "Ada"}`}, 10)
	students, err := course.Students(context.Background())
	require.NoError(t, err)

	sub, err := newSubmission(students[1], []byte(`{"id": 1, "assignment_id": 7, "score": 5}`))
	require.NoError(t, err)
	other, err := newAssignment(course, []byte(`{"id": 8, "name": "Other", "points_possible": 10}`))
	require.NoError(t, err)

	sub.AddAssignmentInfo(other)
	_, ok := sub.Attr("assignment_name")
	require.False(t, ok)
	_, ok = sub.Attr("percent_score")
	require.False(t, ok)

	lab, err := newAssignment(course, []byte(`{"id": 7, "name": "Lab", "points_possible": 10, "due_at": "2024-03-01T08:00:00Z"}`))
	require.NoError(t, err)
	sub.AddAssignmentInfo(lab)
	require.Equal(t, 50.0, sub.PercentScore)
	due, _ := sub.Str("assignment_due_at_display")
	require.Equal(t, "2024-03-01T08:00:00Z", due)
	_, ok = sub.Attr("assignment_due_at_dt")
	require.True(t, ok)
}
