package gradestore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"canvas-access/internal/components/telemetry"
	"canvas-access/internal/gradebook"
	"canvas-access/internal/gradestore/db"
)

const report_store_skip_undefined = "store.skip-undefined-grade"

// Store keeps a daily history of the final grades of students.
type Store struct {
	db  *sql.DB
	qry *db.Queries
	loc *time.Location
	tel telemetry.API
}

// NewStore wraps an open database, loc decides where a day starts and ends (nil is UTC).
func NewStore(database *sql.DB, loc *time.Location, tel telemetry.API) Store {
	if loc == nil {
		loc = time.UTC
	}
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	return Store{
		db:  database,
		qry: db.New(database),
		loc: loc,
		tel: telemetry.NewScopedAPI("gradestore", tel),
	}
}

type CourseSnapshot struct {
	Course string
	Value  float64
}

type StudentSnapshot struct {
	Student string
	Courses []CourseSnapshot
}

type PushRequest struct {
	Time     time.Time
	Students []StudentSnapshot
}

// Push records the grades of a request. Snapshots already taken on the same day for the
// (student, course) pairs in the request are replaced, other courses of the same
// students are left untouched.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	local := req.Time.In(s.loc)
	startOfToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).Unix()
	startOfTomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.loc).Unix()

	type pending struct {
		studentCourseId int64
		value           float64
	}
	var snapshots []pending
	var studentCourseIds []int64
	for _, student := range req.Students {
		for _, course := range student.Courses {
			err := txqry.CreateStudentCourse(ctx, db.CreateStudentCourseParams{
				Student: student.Student,
				Course:  course.Course,
			})
			if err != nil {
				return err
			}

			studentCourseId, err := txqry.GetStudentCourseId(ctx, db.GetStudentCourseIdParams{
				Student: student.Student,
				Course:  course.Course,
			})
			if err != nil {
				return err
			}
			snapshots = append(snapshots, pending{studentCourseId: studentCourseId, value: course.Value})
			studentCourseIds = append(studentCourseIds, studentCourseId)
		}
	}

	err = txqry.DeleteGradeSnapshotsIn(ctx, db.DeleteGradeSnapshotsInParams{
		After:            startOfToday,
		Before:           startOfTomorrow,
		StudentCourseIDs: studentCourseIds,
	})
	if err != nil {
		return fmt.Errorf("delete snapshots of the day: %w", err)
	}

	for _, snapshot := range snapshots {
		err = txqry.CreateGradeSnapshot(ctx, db.CreateGradeSnapshotParams{
			StudentCourseID: snapshot.studentCourseId,
			Time:            req.Time.Unix(),
			Value:           snapshot.value,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

type GradeSnapshot struct {
	Time  time.Time
	Value float64
}

type CourseSnapshotSeries struct {
	Course    string
	Snapshots []GradeSnapshot
}

// Pull returns the grade history of a student, one series per course ordered by course
// then time.
func (s Store) Pull(ctx context.Context, student string) ([]CourseSnapshotSeries, error) {
	rows, err := s.qry.GetGradeSnapshots(ctx, student)
	if err != nil {
		return nil, err
	}

	var courses []CourseSnapshotSeries
	for _, r := range rows {
		if r.Course == "" {
			continue
		}
		if len(courses) == 0 || courses[len(courses)-1].Course != r.Course {
			courses = append(courses, CourseSnapshotSeries{Course: r.Course})
		}
		series := &courses[len(courses)-1]
		series.Snapshots = append(series.Snapshots, GradeSnapshot{
			Time:  time.Unix(r.Time, 0).In(s.loc),
			Value: r.Value,
		})
	}
	return courses, nil
}

// StudentKey is the key a student's snapshots are stored under, their SIS id when they
// have one and their Canvas id otherwise.
func StudentKey(portfolio *gradebook.StudentPortfolio) string {
	if portfolio.SisUserID != "" {
		return portfolio.SisUserID
	}
	return strconv.FormatInt(portfolio.StudentID, 10)
}

// SnapshotGradebook turns the final grades of a gradebook into a push request, students
// are keyed by StudentKey and the course by its name. Nothing is recorded when the final
// grade is undefined.
func (s Store) SnapshotGradebook(bundle *gradebook.GradingBundle, report *gradebook.Gradebook, now time.Time) PushRequest {
	req := PushRequest{Time: now}
	if !report.Final.Defined {
		s.tel.ReportWarning(report_store_skip_undefined, bundle.CourseID, bundle.CourseName)
		return req
	}
	for _, studentId := range bundle.StudentIDs {
		req.Students = append(req.Students, StudentSnapshot{
			Student: StudentKey(bundle.Portfolios[studentId]),
			Courses: []CourseSnapshot{{
				Course: bundle.CourseName,
				Value:  report.Final.Grades[studentId],
			}},
		})
	}
	return req
}
