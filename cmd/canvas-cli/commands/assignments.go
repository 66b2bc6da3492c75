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
	rootCmd.AddCommand(assignmentsCmd)
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments <course id>",
	Short: "Lists the assignments of a course with their group and due date.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		session := globals.Get(ctx).RequireSession()

		course, err := session.Course(ctx, utils.ParseId("course id", args[0]))
		if err != nil {
			utils.Fatal("failed to get course", err)
		}
		groups, err := course.AssignmentGroups(ctx)
		if err != nil {
			utils.Fatal("failed to get assignment groups", err)
		}

		groupIds := maps.Keys(groups)
		slices.Sort(groupIds)

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Group", "Weight", "ID", "Name", "Points", "Due"})
		for _, groupId := range groupIds {
			group := groups[groupId]
			assignments, err := group.Assignments(ctx)
			if err != nil {
				utils.Fatal("failed to get assignments", err)
			}

			assignmentIds := maps.Keys(assignments)
			slices.Sort(assignmentIds)
			for _, id := range assignmentIds {
				assignment := assignments[id]
				due, _ := assignment.Str("due_at_display")
				t.AppendRow(table.Row{
					group.Name,
					utils.Deref(group.GroupWeight),
					id,
					assignment.Name,
					utils.Deref(assignment.PointsPossible),
					due,
				})
			}
			t.AppendSeparator()
		}
		t.Render()
	},
}
