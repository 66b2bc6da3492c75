package commands

import (
	"slices"

	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/cmd/canvas-cli/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Lists the courses of the user the API key belongs to.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		session := globals.Get(cmd.Context()).RequireSession()

		courses, err := session.Courses(cmd.Context())
		if err != nil {
			utils.Fatal("failed to get courses", err)
		}

		ids := maps.Keys(courses)
		slices.Sort(ids)

		t := utils.NewTable()
		t.AppendHeader(table.Row{"ID", "Name", "Code", "SIS ID"})
		for _, id := range ids {
			course := courses[id]
			t.AppendRow(table.Row{id, course.Name, course.CourseCode, course.SisID})
		}
		t.Render()
	},
}
