package db

import (
	"context"
	"database/sql"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createStudentCourse = `
insert or ignore into student_course(student, course)
values (?, ?)
`

type CreateStudentCourseParams struct {
	Student string
	Course  string
}

func (q *Queries) CreateStudentCourse(ctx context.Context, arg CreateStudentCourseParams) error {
	_, err := q.db.ExecContext(ctx, createStudentCourse, arg.Student, arg.Course)
	return err
}

const getStudentCourseId = `
select id from student_course
where student = ? and course = ?
`

type GetStudentCourseIdParams struct {
	Student string
	Course  string
}

func (q *Queries) GetStudentCourseId(ctx context.Context, arg GetStudentCourseIdParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getStudentCourseId, arg.Student, arg.Course)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createGradeSnapshot = `
insert into grade_snapshot(student_course_id, time, value)
values (?, ?, ?)
`

type CreateGradeSnapshotParams struct {
	StudentCourseID int64
	Time            int64
	Value           float64
}

func (q *Queries) CreateGradeSnapshot(ctx context.Context, arg CreateGradeSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createGradeSnapshot, arg.StudentCourseID, arg.Time, arg.Value)
	return err
}

const deleteGradeSnapshotsIn = `
delete from grade_snapshot
where time >= ? and time < ? and student_course_id in (/*SLICE:ids*/?)
`

type DeleteGradeSnapshotsInParams struct {
	After            int64
	Before           int64
	StudentCourseIDs []int64
}

// DeleteGradeSnapshotsIn removes the snapshots of the given student courses taken in
// [After, Before).
func (q *Queries) DeleteGradeSnapshotsIn(ctx context.Context, arg DeleteGradeSnapshotsInParams) error {
	if len(arg.StudentCourseIDs) == 0 {
		return nil
	}
	query := strings.Replace(
		deleteGradeSnapshotsIn,
		"/*SLICE:ids*/?",
		strings.Repeat(",?", len(arg.StudentCourseIDs))[1:],
		1,
	)
	args := []any{arg.After, arg.Before}
	for _, id := range arg.StudentCourseIDs {
		args = append(args, id)
	}
	_, err := q.db.ExecContext(ctx, query, args...)
	return err
}

const getGradeSnapshots = `
select student_course.course, grade_snapshot.time, grade_snapshot.value
from grade_snapshot
inner join student_course on student_course.id = grade_snapshot.student_course_id
where student_course.student = ?
order by student_course.course asc, grade_snapshot.time asc
`

type GetGradeSnapshotsRow struct {
	Course string
	Time   int64
	Value  float64
}

func (q *Queries) GetGradeSnapshots(ctx context.Context, student string) ([]GetGradeSnapshotsRow, error) {
	rows, err := q.db.QueryContext(ctx, getGradeSnapshots, student)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetGradeSnapshotsRow
	for rows.Next() {
		var i GetGradeSnapshotsRow
		if err := rows.Scan(&i.Course, &i.Time, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
