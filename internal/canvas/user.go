package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const report_user_get_submissions = "user.get-submissions"

const (
	EnrollmentStudent = "student"
	EnrollmentTeacher = "teacher"
	EnrollmentError   = "ERROR"
)

// ErrNotStudent is returned when student only data is requested for a user of another
// enrollment type.
var ErrNotStudent = errors.New("not a student")

// Profile holds the naming fields shared by users and students.
type Profile struct {
	Name         string  `json:"name"`
	ShortName    string  `json:"short_name"`
	SortableName string  `json:"sortable_name"`
	SisUserID    *string `json:"sis_user_id"`
	LoginID      string  `json:"login_id"`
	Email        string  `json:"email"`
}

// SisID returns the SIS user id or an empty string.
func (p Profile) SisID() string {
	if p.SisUserID == nil {
		return ""
	}
	return *p.SisUserID
}

type Enrollment struct {
	ID              int64  `json:"id"`
	Type            string `json:"type"`
	EnrollmentState string `json:"enrollment_state"`
}

type User struct {
	Entity
	Profile

	Enrollments []Enrollment `json:"enrollments"`

	// EnrollmentType is student, teacher or another Canvas enrollment type name.
	EnrollmentType string `json:"-"`
}

func newUser(parent node, raw []byte) (*User, error) {
	u := &User{}
	u.Kind = KindUser

	switch p := parent.(type) {
	case *Course:
		inherit(&u.Entity, p)
		inheritCourse(&u.Entity, p)
	case *Session:
		inherit(&u.Entity, p)
	default:
		return nil, ErrParentKind{Child: KindUser, Parent: parent.entity().Kind}
	}

	err := hydrate(&u.Entity, raw, u)
	if err != nil {
		return nil, err
	}
	u.InfoKeys = []string{"sis_user_id", "name"}
	return u, nil
}

func (u *User) String() string {
	courseId, _ := u.Int("course_id")
	return fmt.Sprintf("%s [Course ID: %d]: %d \t %s (%s)", u.Kind, courseId, u.Id(), u.ShortName, u.SisID())
}

func (u *User) setEnrollmentType(enrollmentType string) {
	u.EnrollmentType = enrollmentType
	u.set("enrollment_type", enrollmentType)
}

// Submissions gets every submission of the user in a course. A courseId of 0 uses the
// course the user was fetched from.
//
// Endpoint: /courses/{course_id}/students/submissions
func (u *User) Submissions(ctx context.Context, courseId int64) (map[int64]*Submission, error) {
	if u.EnrollmentType != EnrollmentStudent {
		return nil, fmt.Errorf("user %d is enrolled as %q: %w", u.Id(), u.EnrollmentType, ErrNotStudent)
	}
	if courseId == 0 {
		id, ok := u.Int("course_id")
		if !ok {
			return nil, fmt.Errorf("%w: user %d was not fetched through a course", ErrLookup, u.Id())
		}
		courseId = id
	}

	raws, err := u.ctx.getList(
		ctx,
		u.ctx.endpoint("/courses/%d/students/submissions", courseId),
		studentSubmissionParams(u.Id()),
	)
	if err != nil {
		u.ctx.tel.ReportBroken(report_user_get_submissions, err, u.Id(), courseId)
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Submission, error) {
		return newSubmission(u, raw)
	})
}

// Conversations gets the conversations of the active user filtered to this user.
func (u *User) Conversations(ctx context.Context, query ConversationQuery) (map[int64]*Conversation, error) {
	return conversations(ctx, u, query)
}

func studentSubmissionParams(studentId int64) url.Values {
	params := perPage(100)
	params.Set("student_ids[]", strconv.FormatInt(studentId, 10))
	return params
}
