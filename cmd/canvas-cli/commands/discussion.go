package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/cmd/canvas-cli/utils"
	"canvas-access/internal/canvas"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(discussionCmd)
}

var discussionCmd = &cobra.Command{
	Use:   "discussion <course id> <topic id>",
	Short: "Prints the entries of a discussion topic as a reply tree.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		session := globals.Get(ctx).RequireSession()

		course, err := session.Course(ctx, utils.ParseId("course id", args[0]))
		if err != nil {
			utils.Fatal("failed to get course", err)
		}
		discussion, err := course.Discussion(ctx, utils.ParseId("topic id", args[1]))
		if err != nil {
			utils.Fatal("failed to get discussion", err)
		}
		entries, err := discussion.Entries(ctx)
		if err != nil {
			utils.Fatal("failed to get discussion entries", err)
		}

		var roots []int64
		for id, entry := range entries {
			if entry.ParentID == nil {
				roots = append(roots, id)
			}
		}
		slices.Sort(roots)

		l := list.NewWriter()
		l.SetStyle(list.StyleConnectedRounded)
		l.SetOutputMirror(os.Stdout)
		l.AppendItem(fmt.Sprintf("%s (%d entries)", discussion.Title, len(entries)))
		l.Indent()
		for _, id := range roots {
			appendEntry(l, entries, id)
		}
		l.Render()
	},
}

func appendEntry(l list.Writer, entries map[int64]*canvas.Entry, id int64) {
	entry := entries[id]
	posted := utils.Deref(entry.CreatedAt)
	if display, ok := entry.Str("created_at_display"); ok {
		posted = display
	}
	l.AppendItem(fmt.Sprintf(
		"%s [%s]: %s",
		entry.UserName,
		posted,
		strings.Join(strings.Fields(entry.MessageText), " "),
	))
	if len(entry.ReplyList) == 0 {
		return
	}
	l.Indent()
	for _, reply := range entry.ReplyList {
		appendEntry(l, entries, reply)
	}
	l.UnIndent()
}
