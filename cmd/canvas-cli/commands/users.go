package commands

import (
	"slices"

	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/cmd/canvas-cli/utils"
	"canvas-access/internal/canvas"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

var enrollmentTypes *[]string

func init() {
	enrollmentTypes = usersCmd.Flags().StringSlice(
		"type",
		[]string{canvas.EnrollmentStudent},
		"The enrollment types to list (student, teacher, ta, observer, designer).",
	)
	rootCmd.AddCommand(usersCmd)
}

var usersCmd = &cobra.Command{
	Use:   "users <course id> [--type student,teacher]",
	Short: "Lists the users enrolled in a course.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		session := globals.Get(ctx).RequireSession()

		course, err := session.Course(ctx, utils.ParseId("course id", args[0]))
		if err != nil {
			utils.Fatal("failed to get course", err)
		}
		users, err := course.Users(ctx, *enrollmentTypes...)
		if err != nil {
			utils.Fatal("failed to get users", err)
		}

		ids := maps.Keys(users)
		slices.Sort(ids)

		t := utils.NewTable()
		t.AppendHeader(table.Row{"ID", "Name", "SIS ID", "Enrollment"})
		for _, id := range ids {
			user := users[id]
			t.AppendRow(table.Row{id, user.Name, user.SisID(), user.EnrollmentType})
		}
		t.Render()
	},
}
