package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/cmd/canvas-cli/utils"
	"canvas-access/internal/canvas"
	"canvas-access/internal/components/chrono"
	"canvas-access/internal/gradebook"
	"canvas-access/internal/gradestore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const report_cli_scheduled_snapshot = "cli.scheduled-snapshot"

var (
	gradebookFormat      *string
	gradebookSnapshot    *string
	gradebookStudent     *string
	gradebookConcurrency *int
	gradebookZeros       *bool
	gradebookSchedule    *string
)

func init() {
	flags := gradebookCmd.Flags()
	gradebookFormat = flags.StringP("format", "f", string(gradebook.FormatTable), "The output format (table, csv, markdown, html).")
	gradebookSnapshot = flags.String("snapshot", "", "Records the final grades into a snapshot database (a file path, a libsql:// url or '-' for the configured one).")
	gradebookStudent = flags.String("student", "", "Prints the submissions of the students whose name resembles this one instead of the gradebook.")
	gradebookConcurrency = flags.Int("concurrency", 0, "The number of students whose submissions are fetched at once.")
	gradebookZeros = flags.Bool("zeros", false, "Also prints the number of assignments scored 0 per assignment group.")
	gradebookSchedule = flags.String("schedule", "", "Keeps running and records snapshots on a cron schedule (ex. \"0 18 * * *\"), requires --snapshot.")
	rootCmd.AddCommand(gradebookCmd)
}

var gradebookCmd = &cobra.Command{
	Use:   "gradebook <course id> [--format table] [--snapshot <db>] [--student <name>]",
	Short: "Builds the gradebook of a course, scored by assignment group.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		session := value.RequireSession()

		format, err := gradebook.ParseFormat(*gradebookFormat)
		if err != nil {
			utils.Fatal("invalid format", err)
		}

		course, err := session.Course(ctx, utils.ParseId("course id", args[0]))
		if err != nil {
			utils.Fatal("failed to get course", err)
		}

		concurrency := value.Config.Concurrency
		if cmd.Flags().Changed("concurrency") {
			concurrency = *gradebookConcurrency
		}
		opts := gradebook.BuildOptions{
			Concurrency: concurrency,
			Tel:         value.Tel,
		}

		if *gradebookSchedule != "" {
			if *gradebookSnapshot == "" {
				utils.Fatal("invalid flags", fmt.Errorf("--schedule requires --snapshot"))
			}
			scheduleSnapshots(cmd, value, course, opts)
			return
		}

		start := time.Now()
		bundle, report, err := gradebook.MakeGradebook(ctx, course, opts)
		if err != nil {
			utils.Fatal("failed to make gradebook", err)
		}
		slog.Debug("gradebook built", "bundle", bundle.String(), "seconds", time.Since(start).Seconds())

		if *gradebookStudent != "" {
			printStudents(bundle, *gradebookStudent)
		} else {
			err = report.Render(os.Stdout, format)
			if err != nil {
				utils.Fatal("failed to render gradebook", err)
			}
		}

		if *gradebookZeros {
			printZeros(bundle)
		}

		if *gradebookSnapshot != "" {
			snapshot(cmd, value, bundle, report)
		}
	},
}

func printStudents(bundle *gradebook.GradingBundle, name string) {
	matches := bundle.FindStudent(name)
	if len(matches) == 0 {
		fmt.Fprintf(os.Stderr, "no student named like %q\n", name)
		os.Exit(1)
	}

	for _, match := range matches {
		portfolio := match.Portfolio

		t := utils.NewTable()
		t.SetTitle(fmt.Sprintf("%s (%d, %.2f)", portfolio.StudentName, portfolio.StudentID, match.Similarity))
		t.AppendHeader(table.Row{"Assignment", "Score", "Points", "Percent", "Late", "Missing", "Submitted"})
		for _, assignmentId := range bundle.AssignmentIDs {
			assignment := bundle.Assignments[assignmentId]
			submission := portfolio.Submissions[assignmentId]
			if submission == nil {
				t.AppendRow(table.Row{assignment.Name, "", utils.Deref(assignment.PointsPossible), "", "", "", ""})
				continue
			}
			t.AppendRow(table.Row{
				assignment.Name,
				utils.Deref(submission.Score),
				utils.Deref(assignment.PointsPossible),
				gradebook.FormatCell(submission.PercentScore),
				submission.Late,
				submission.Missing,
				utils.Deref(submission.SubmittedAt),
			})
		}
		t.Render()
	}
}

func printZeros(bundle *gradebook.GradingBundle) {
	tally := bundle.CountZeros()

	t := utils.NewTable()
	t.SetTitle("Assignments scored 0")
	header := table.Row{"Student"}
	for _, partition := range tally.Partitions {
		header = append(header, partition)
	}
	t.AppendHeader(append(header, "Total"))
	for _, studentId := range bundle.StudentIDs {
		row := table.Row{bundle.Portfolios[studentId].StudentName}
		for _, partition := range tally.Partitions {
			row = append(row, tally.Count(partition, studentId))
		}
		t.AppendRow(append(row, tally.Total(studentId)))
	}
	t.Render()
}

func openSnapshots(value *globals.Value) (*sql.DB, gradestore.Store, *time.Location) {
	config := value.Config.Snapshots
	if *gradebookSnapshot != "-" {
		config = gradestore.ParseDSN(*gradebookSnapshot)
	}
	database, err := config.OpenDB()
	if err != nil {
		utils.Fatal("failed to open snapshot db", err)
	}
	loc, err := chrono.LoadLocation(value.Config.Timezone)
	if err != nil {
		utils.Fatal("failed to load timezone", err)
	}
	return database, gradestore.NewStore(database, loc, value.Tel), loc
}

func pushSnapshot(ctx context.Context, store gradestore.Store, now time.Time, bundle *gradebook.GradingBundle, report *gradebook.Gradebook) error {
	req := store.SnapshotGradebook(bundle, report, now)
	err := store.Push(ctx, req)
	if err != nil {
		return err
	}
	slog.Info("recorded grade snapshots", "course", bundle.CourseName, "students", len(req.Students))
	return nil
}

func snapshot(cmd *cobra.Command, value *globals.Value, bundle *gradebook.GradingBundle, report *gradebook.Gradebook) {
	database, store, loc := openSnapshots(value)
	defer database.Close()

	err := pushSnapshot(cmd.Context(), store, chrono.NewStandardTime(loc).Now(), bundle, report)
	if err != nil {
		utils.Fatal("failed to push snapshots", err)
	}
}

// scheduleSnapshots rebuilds the gradebook and records its snapshots on every run of
// the schedule until interrupted.
func scheduleSnapshots(cmd *cobra.Command, value *globals.Value, course *canvas.Course, opts gradebook.BuildOptions) {
	database, store, loc := openSnapshots(value)
	defer database.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := chrono.NewStandardTime(loc)
	scheduler := chrono.NewCronScheduler(loc, value.Tel)
	err := scheduler.Schedule(*gradebookSchedule, func() {
		bundle, report, err := gradebook.MakeGradebook(ctx, course, opts)
		if err != nil {
			value.Tel.ReportBroken(report_cli_scheduled_snapshot, err, course.Id())
			return
		}
		err = pushSnapshot(ctx, store, clock.Now(), bundle, report)
		if err != nil {
			value.Tel.ReportBroken(report_cli_scheduled_snapshot, err, course.Id())
		}
	})
	if err != nil {
		utils.Fatal("invalid schedule", err)
	}

	next, _ := scheduler.Next()
	slog.Info("snapshots scheduled", "course", course.Name, "schedule", *gradebookSchedule, "next", next)

	<-ctx.Done()
	slog.Info("stopping scheduled snapshots")

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	scheduler.Stop(stopCtx)
}
