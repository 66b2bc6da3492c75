package commands

import (
	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/cmd/canvas-cli/utils"
	"canvas-access/internal/components/chrono"
	"canvas-access/internal/gradebook"
	"canvas-access/internal/gradestore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <db> <student>",
	Short: "Prints the final grade history of a student, keyed by SIS id or Canvas id.",
	Long: "Prints the final grade history of a student recorded by 'gradebook --snapshot'. " +
		"<db> is a file path or a libsql:// url, '-' uses the snapshots database of the configuration file.",
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())

		config := value.Config.Snapshots
		if args[0] != "-" {
			config = gradestore.ParseDSN(args[0])
		}
		database, err := config.OpenDB()
		if err != nil {
			utils.Fatal("failed to open snapshot db", err)
		}
		defer database.Close()

		loc, err := chrono.LoadLocation(value.Config.Timezone)
		if err != nil {
			utils.Fatal("failed to load timezone", err)
		}
		store := gradestore.NewStore(database, loc, value.Tel)

		series, err := store.Pull(cmd.Context(), args[1])
		if err != nil {
			utils.Fatal("failed to pull snapshots", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Course", "Time", "Final Grade"})
		for _, course := range series {
			for _, snapshot := range course.Snapshots {
				t.AppendRow(table.Row{course.Course, snapshot.Time.Format(chrono.LocalLayout), gradebook.FormatCell(snapshot.Value)})
			}
			t.AppendSeparator()
		}
		t.Render()
	},
}
