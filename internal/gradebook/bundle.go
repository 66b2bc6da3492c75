package gradebook

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"canvas-access/internal/canvas"
	"canvas-access/internal/components/assert"
	"canvas-access/internal/components/telemetry"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

const (
	report_bundle_fetch_submissions = "bundle.fetch-submissions"
	report_bundle_submissions       = "bundle.submissions"
)

// AssignmentCluster is a named, optionally weighted group of assignments scored together.
type AssignmentCluster struct {
	Name          string
	AssignmentIDs []int64
	// Weight is nil for clusters that only count by points.
	Weight *float64
}

func (c AssignmentCluster) String() string {
	weight := "<nil>"
	if c.Weight != nil {
		weight = fmt.Sprint(*c.Weight)
	}
	return fmt.Sprintf("%s\t%s\t%v", c.Name, weight, c.AssignmentIDs)
}

// StudentPortfolio is the complete submission set of one student in a course.
type StudentPortfolio struct {
	CourseID    int64
	CourseName  string
	StudentID   int64
	StudentName string
	SisUserID   string

	// Submissions has one slot per bundle assignment, nil when the student never
	// submitted it.
	Submissions map[int64]*canvas.Submission
}

func (p *StudentPortfolio) String() string {
	return fmt.Sprintf("StudentPortfolio (Course: %s): %d \t%s (%s)", p.CourseName, p.StudentID, p.StudentName, p.SisUserID)
}

// GradingBundle is the dense student x assignment submission matrix of a course.
type GradingBundle struct {
	CourseID   int64
	CourseName string

	// AssignmentIDs and StudentIDs are sorted ascending, they define the row and column
	// order of reports.
	AssignmentIDs []int64
	StudentIDs    []int64

	Assignments map[int64]*canvas.Assignment
	Students    map[int64]*canvas.Student
	Portfolios  map[int64]*StudentPortfolio

	// GradeData holds the results of the counting queries keyed by the name they were
	// run under.
	GradeData map[string]Tally

	mutex sync.Mutex
}

// BuildOptions tunes how submissions are fetched.
type BuildOptions struct {
	// Concurrency is the number of students whose submissions are fetched at once,
	// values below 2 fetch one student at a time.
	Concurrency int
	Tel         telemetry.API
}

// Build fetches the submissions of every student and places those that belong to one
// of the assignments into the bundle. Each submission is tagged with the course and
// enriched with the info of its assignment.
func Build(
	ctx context.Context,
	course *canvas.Course,
	assignments map[int64]*canvas.Assignment,
	students map[int64]*canvas.Student,
	opts BuildOptions,
) (*GradingBundle, error) {
	assert.NotNil(course)

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("gradebook", tel)

	b := &GradingBundle{
		CourseID:      course.Id(),
		CourseName:    course.Name,
		AssignmentIDs: maps.Keys(assignments),
		StudentIDs:    maps.Keys(students),
		Assignments:   assignments,
		Students:      students,
		Portfolios:    make(map[int64]*StudentPortfolio, len(students)),
		GradeData:     map[string]Tally{},
	}
	slices.Sort(b.AssignmentIDs)
	slices.Sort(b.StudentIDs)

	for _, studentId := range b.StudentIDs {
		student := students[studentId]
		portfolio := &StudentPortfolio{
			CourseID:    course.Id(),
			CourseName:  course.Name,
			StudentID:   studentId,
			StudentName: student.Name,
			SisUserID:   student.SisID(),
			Submissions: make(map[int64]*canvas.Submission, len(assignments)),
		}
		for _, assignmentId := range b.AssignmentIDs {
			portfolio.Submissions[assignmentId] = nil
		}
		b.Portfolios[studentId] = portfolio
	}

	fill := func(ctx context.Context, index int, studentId int64) error {
		student := students[studentId]
		tel.ReportDebug(
			fmt.Sprintf("getting submissions for student %d of %d", index+1, len(b.StudentIDs)),
			studentId, student.Name,
		)

		submissions, err := student.Submissions(ctx)
		if err != nil {
			tel.ReportBroken(report_bundle_fetch_submissions, err, studentId)
			return fmt.Errorf("submissions of student %d: %w", studentId, err)
		}

		// each fetch only writes into the portfolio of its own student
		portfolio := b.Portfolios[studentId]
		for _, submission := range submissions {
			assignment, ok := assignments[submission.AssignmentID]
			if !ok {
				continue
			}
			submission.AddCourseInfo(course)
			submission.AddAssignmentInfo(assignment)
			portfolio.Submissions[submission.AssignmentID] = submission
		}
		return nil
	}

	if opts.Concurrency < 2 {
		for i, studentId := range b.StudentIDs {
			err := fill(ctx, i, studentId)
			if err != nil {
				return nil, err
			}
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(opts.Concurrency)
		for i, studentId := range b.StudentIDs {
			group.Go(func() error {
				return fill(groupCtx, i, studentId)
			})
		}
		err := group.Wait()
		if err != nil {
			return nil, err
		}
	}

	tel.ReportCount(report_bundle_submissions, int64(b.Submitted()))
	return b, nil
}

// Submission returns the submission in a slot of the matrix, ok is false if the slot
// does not exist. A nil submission in an existing slot means it was never submitted.
func (b *GradingBundle) Submission(studentId, assignmentId int64) (submission *canvas.Submission, ok bool) {
	portfolio, ok := b.Portfolios[studentId]
	if !ok {
		return nil, false
	}
	submission, ok = portfolio.Submissions[assignmentId]
	return submission, ok
}

// Slots returns the number of slots in the matrix.
func (b *GradingBundle) Slots() int {
	count := 0
	for _, portfolio := range b.Portfolios {
		count += len(portfolio.Submissions)
	}
	return count
}

// Submitted returns the number of slots holding a submission.
func (b *GradingBundle) Submitted() int {
	count := 0
	for _, portfolio := range b.Portfolios {
		for _, submission := range portfolio.Submissions {
			if submission != nil {
				count++
			}
		}
	}
	return count
}

func (b *GradingBundle) String() string {
	return fmt.Sprintf(
		"GradingBundle (Course: %s): %d students, %d assignments",
		b.CourseName, len(b.StudentIDs), len(b.AssignmentIDs),
	)
}

func (b *GradingBundle) setGradeData(name string, tally Tally) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.GradeData[name] = tally
}
