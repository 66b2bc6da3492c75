package gradebook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"canvas-access/internal/canvas"
	"canvas-access/internal/components/telemetry"
)

// fakeCourse serves a single course with its students, assignments, groups and the
// submissions of each student.
type fakeCourse struct {
	students    []string
	assignments []string
	groups      []string
	// submissions is keyed by student id.
	submissions map[string][]string

	submissionRequests atomic.Int64
}

func (f *fakeCourse) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	list := func(items []string) {
		fmt.Fprintf(w, "[%s]", strings.Join(items, ","))
	}
	switch r.URL.Path {
	case "/api/v1/courses/1/users":
		list(f.students)
	case "/api/v1/courses/1/assignments":
		list(f.assignments)
	case "/api/v1/courses/1/assignment_groups":
		list(f.groups)
	case "/api/v1/courses/1/students/submissions":
		f.submissionRequests.Add(1)
		studentId := r.URL.Query().Get("student_ids[]")
		if studentId == "666" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		list(f.submissions[studentId])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCourse) course(t testing.TB) *canvas.Course {
	telemetry.SetupForTesting(t, "test:gradebook")

	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)

	session, err := canvas.NewSession(canvas.Options{
		BaseUrl: server.URL,
		ApiKey:  "test-key",
		Tel:     &telemetry.RecorderAPI{},
	})
	if err != nil {
		t.Fatal(err)
	}
	course, err := session.CourseFromJSON([]byte(`{"id": 1, "name": "Physics"}`))
	if err != nil {
		t.Fatal(err)
	}
	return course
}

func (f *fakeCourse) bundle(t testing.TB, opts BuildOptions) *GradingBundle {
	ctx := context.Background()
	course := f.course(t)

	students, err := course.Students(ctx)
	if err != nil {
		t.Fatal(err)
	}
	assignments, err := course.Assignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	bundle, err := Build(ctx, course, assignments, students, opts)
	if err != nil {
		t.Fatal(err)
	}
	return bundle
}

// twoByTwo is the course of two assignments worth 10 and 20 points where student 1
// scores (10, 10) and student 2 scores (null, 20).
func twoByTwo() *fakeCourse {
	return &fakeCourse{
		students: []string{
			`{"id": 1, "name": "Ada Lovelace", "sis_user_id": "S1"}`,
			`{"id": 2, "name": "Ben Franklin", "sis_user_id": "S2"}`,
		},
		assignments: []string{
			`{"id": 101, "name": "Lab", "points_possible": 10, "assignment_group_id": 7}`,
			`{"id": 102, "name": "Exam", "points_possible": 20, "assignment_group_id": 7}`,
		},
		groups: []string{
			`{"id": 7, "name": "Everything", "group_weight": null}`,
		},
		submissions: map[string][]string{
			"1": {
				`{"id": 1001, "assignment_id": 101, "user_id": 1, "score": 10}`,
				`{"id": 1002, "assignment_id": 102, "user_id": 1, "score": 10}`,
			},
			"2": {
				`{"id": 2001, "assignment_id": 101, "user_id": 2, "score": null}`,
				`{"id": 2002, "assignment_id": 102, "user_id": 2, "score": 20}`,
			},
		},
	}
}
