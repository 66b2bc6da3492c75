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

var (
	conversationScopes *[]string
	conversationCount  *int
	conversationCourse *int64
)

func init() {
	conversationScopes = conversationsCmd.Flags().StringSlice(
		"scope",
		[]string{canvas.ScopeReadAndUnread},
		"The scopes to list (read_and_unread, unread, starred, archived, sent).",
	)
	conversationCount = conversationsCmd.Flags().Int("count", 0, "The number of conversations to get per scope, 0 gets all of them.")
	conversationCourse = conversationsCmd.Flags().Int64("course", 0, "Only list the conversations of a course.")
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(conversationCmd)
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations [--scope unread,starred] [--count <n>] [--course <course id>]",
	Short: "Lists the conversations of the user the API key belongs to.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		session := globals.Get(ctx).RequireSession()

		query := canvas.ConversationQuery{
			Count: *conversationCount,
			Scope: *conversationScopes,
		}

		var conversations map[int64]*canvas.Conversation
		var err error
		if *conversationCourse != 0 {
			course, courseErr := session.Course(ctx, *conversationCourse)
			if courseErr != nil {
				utils.Fatal("failed to get course", courseErr)
			}
			conversations, err = course.Conversations(ctx, query)
		} else {
			conversations, err = session.Conversations(ctx, query)
		}
		if err != nil {
			utils.Fatal("failed to get conversations", err)
		}

		ids := maps.Keys(conversations)
		slices.Sort(ids)

		t := utils.NewTable()
		t.AppendHeader(table.Row{"ID", "Subject", "Context", "Messages", "Last Activity", "Participants"})
		t.SetColumnConfigs([]table.ColumnConfig{{Name: "Participants", WidthMax: 40}})
		for _, id := range ids {
			conversation := conversations[id]
			t.AppendRow(table.Row{
				id,
				conversation.Subject,
				conversation.ContextName,
				conversation.MessageCount,
				utils.Deref(conversation.LastActivity),
				conversation.ParticipantList,
			})
		}
		t.Render()
	},
}

var conversationCmd = &cobra.Command{
	Use:   "conversation <conversation id>",
	Short: "Prints the messages of a conversation, oldest first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		session := globals.Get(ctx).RequireSession()

		conversation, err := session.Conversation(ctx, utils.ParseId("conversation id", args[0]))
		if err != nil {
			utils.Fatal("failed to get conversation", err)
		}
		messages, err := conversation.Messages(ctx)
		if err != nil {
			utils.Fatal("failed to get messages", err)
		}

		ids := maps.Keys(messages)
		slices.Sort(ids)

		t := utils.NewTable()
		t.SetTitle(conversation.Subject)
		t.AppendHeader(table.Row{"ID", "Author", "Sent", "Body"})
		t.SetColumnConfigs([]table.ColumnConfig{{Name: "Body", WidthMax: 60}})
		for _, id := range ids {
			message := messages[id]
			sent := utils.Deref(message.CreatedAt)
			if display, ok := message.Str("created_at_display"); ok {
				sent = display
			}
			t.AppendRow(table.Row{id, message.AuthorName, sent, message.Body})
		}
		t.Render()
	},
}
