package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	report_course_get_assignments       = "course.get-assignments"
	report_course_get_assignment_groups = "course.get-assignment-groups"
	report_course_get_discussions       = "course.get-discussions"
	report_course_get_users             = "course.get-users"
)

type Course struct {
	Entity

	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
	SisID      string `json:"sis_course_id"`
}

func newCourse(parent node, raw []byte) (*Course, error) {
	c := &Course{}
	c.Kind = KindCourse

	p := parent.entity()
	switch p.Kind {
	case KindSession:
	default:
		return nil, ErrParentKind{Child: KindCourse, Parent: p.Kind}
	}
	inherit(&c.Entity, parent)

	err := hydrate(&c.Entity, raw, c)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Payload("name"); !ok {
		c.Name = "N/A"
		c.set("name", c.Name)
	}
	c.InfoKeys = []string{"name"}
	return c, nil
}

func (c *Course) String() string {
	return fmt.Sprintf("%s: %d \t %s", c.Kind, c.Id(), c.Name)
}

// inheritCourse tags a child of a course with the course's id and name.
func inheritCourse(child *Entity, c *Course) {
	child.setInherited("course_id", c.Id())
	child.setInherited("course_name", c.Name)
}

// Assignment gets a single assignment of the course.
//
// Endpoint: /courses/{course_id}/assignments/{assignment_id}
func (c *Course) Assignment(ctx context.Context, assignmentId int64) (*Assignment, error) {
	raw, err := c.ctx.getDetail(ctx, c.ctx.endpoint("/courses/%d/assignments/%d", c.Id(), assignmentId), nil)
	if err != nil {
		return nil, err
	}
	return newAssignment(c, raw)
}

// Assignments gets every assignment of the course.
//
// Endpoint: /courses/{course_id}/assignments
func (c *Course) Assignments(ctx context.Context) (map[int64]*Assignment, error) {
	raws, err := c.ctx.getList(ctx, c.ctx.endpoint("/courses/%d/assignments", c.Id()), perPage(100))
	if err != nil {
		c.ctx.tel.ReportBroken(report_course_get_assignments, err, c.Id())
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Assignment, error) {
		return newAssignment(c, raw)
	})
}

// AssignmentGroup gets a single assignment group of the course.
//
// Endpoint: /courses/{course_id}/assignment_groups/{assignment_group_id}
func (c *Course) AssignmentGroup(ctx context.Context, groupId int64) (*AssignmentGroup, error) {
	raw, err := c.ctx.getDetail(ctx, c.ctx.endpoint("/courses/%d/assignment_groups/%d", c.Id(), groupId), nil)
	if err != nil {
		return nil, err
	}
	return newAssignmentGroup(c, raw)
}

// AssignmentGroups gets every assignment group of the course.
//
// Endpoint: /courses/{course_id}/assignment_groups
func (c *Course) AssignmentGroups(ctx context.Context) (map[int64]*AssignmentGroup, error) {
	raws, err := c.ctx.getList(ctx, c.ctx.endpoint("/courses/%d/assignment_groups", c.Id()), nil)
	if err != nil {
		c.ctx.tel.ReportBroken(report_course_get_assignment_groups, err, c.Id())
		return nil, err
	}
	return collect(raws, func(raw []byte) (*AssignmentGroup, error) {
		return newAssignmentGroup(c, raw)
	})
}

// Discussion gets a single discussion topic of the course.
//
// Endpoint: /courses/{course_id}/discussion_topics/{topic_id}
func (c *Course) Discussion(ctx context.Context, topicId int64) (*Discussion, error) {
	raw, err := c.ctx.getDetail(ctx, c.ctx.endpoint("/courses/%d/discussion_topics/%d", c.Id(), topicId), nil)
	if err != nil {
		return nil, err
	}
	return newDiscussion(c, raw)
}

// Discussions gets every discussion topic of the course.
//
// Endpoint: /courses/{course_id}/discussion_topics
func (c *Course) Discussions(ctx context.Context) (map[int64]*Discussion, error) {
	raws, err := c.ctx.getList(ctx, c.ctx.endpoint("/courses/%d/discussion_topics", c.Id()), perPage(100))
	if err != nil {
		c.ctx.tel.ReportBroken(report_course_get_discussions, err, c.Id())
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Discussion, error) {
		return newDiscussion(c, raw)
	})
}

// User gets a single user of the course, its enrollment type is derived from the first
// of its enrollments.
//
// Endpoint: /courses/{course_id}/users/{user_id}
func (c *Course) User(ctx context.Context, userId int64) (*User, error) {
	raw, err := c.ctx.getDetail(
		ctx,
		c.ctx.endpoint("/courses/%d/users/%d", c.Id(), userId),
		url.Values{"include[]": {"enrollments"}},
	)
	if err != nil {
		return nil, err
	}
	u, err := newUser(c, raw)
	if err != nil {
		return nil, err
	}

	enrollmentType := EnrollmentError
	if len(u.Enrollments) > 0 {
		switch u.Enrollments[0].Type {
		case "StudentEnrollment":
			enrollmentType = EnrollmentStudent
		case "TeacherEnrollment":
			enrollmentType = EnrollmentTeacher
		}
	}
	u.setEnrollmentType(enrollmentType)
	return u, nil
}

// Users gets the users of the course enrolled under any of the given enrollment types
// (student, teacher, student_view, ta, observer, designer), student when none are given.
// Every user is tagged with the enrollment type it was fetched under.
//
// Endpoint: /courses/{course_id}/users
func (c *Course) Users(ctx context.Context, enrollmentTypes ...string) (map[int64]*User, error) {
	if len(enrollmentTypes) == 0 {
		enrollmentTypes = []string{EnrollmentStudent}
	}

	out := map[int64]*User{}
	for _, enrollmentType := range enrollmentTypes {
		raws, err := c.users(ctx, enrollmentType)
		if err != nil {
			return nil, err
		}
		users, err := collect(raws, func(raw []byte) (*User, error) {
			u, err := newUser(c, raw)
			if err != nil {
				return nil, err
			}
			u.setEnrollmentType(enrollmentType)
			return u, nil
		})
		if err != nil {
			return nil, err
		}
		for id, u := range users {
			out[id] = u
		}
	}
	return out, nil
}

// Students gets the student enrollments of the course as Student entities.
//
// Endpoint: /courses/{course_id}/users
func (c *Course) Students(ctx context.Context) (map[int64]*Student, error) {
	raws, err := c.users(ctx, EnrollmentStudent)
	if err != nil {
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Student, error) {
		return newStudent(c, raw)
	})
}

func (c *Course) users(ctx context.Context, enrollmentType string) ([]json.RawMessage, error) {
	params := perPage(100)
	params.Set("enrollment_type[]", enrollmentType)
	raws, err := c.ctx.getList(ctx, c.ctx.endpoint("/courses/%d/users", c.Id()), params)
	if err != nil {
		c.ctx.tel.ReportBroken(report_course_get_users, err, c.Id(), enrollmentType)
		return nil, err
	}
	return raws, nil
}

// Conversations gets the conversations of the active user filtered to this course.
func (c *Course) Conversations(ctx context.Context, query ConversationQuery) (map[int64]*Conversation, error) {
	return conversations(ctx, c, query)
}
