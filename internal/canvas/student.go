package canvas

import (
	"context"
	"fmt"
)

const report_student_get_submissions = "student.get-submissions"

// Student is a user fetched under the student enrollment of a course.
type Student struct {
	Entity
	Profile
}

func newStudent(course *Course, raw []byte) (*Student, error) {
	s := &Student{}
	s.Kind = KindStudent
	inherit(&s.Entity, course)
	inheritCourse(&s.Entity, course)

	err := hydrate(&s.Entity, raw, s)
	if err != nil {
		return nil, err
	}
	s.InfoKeys = []string{"sis_user_id", "name"}
	return s, nil
}

func (s *Student) String() string {
	courseId, _ := s.Int("course_id")
	return fmt.Sprintf("%s [Course ID: %d]: %d \t %s (%s)", s.Kind, courseId, s.Id(), s.ShortName, s.SisID())
}

// Submissions gets every submission of the student in their course.
//
// Endpoint: /courses/{course_id}/students/submissions
func (s *Student) Submissions(ctx context.Context) (map[int64]*Submission, error) {
	courseId, _ := s.Int("course_id")
	raws, err := s.ctx.getList(
		ctx,
		s.ctx.endpoint("/courses/%d/students/submissions", courseId),
		studentSubmissionParams(s.Id()),
	)
	if err != nil {
		s.ctx.tel.ReportBroken(report_student_get_submissions, err, s.Id(), courseId)
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Submission, error) {
		return newSubmission(s, raw)
	})
}
