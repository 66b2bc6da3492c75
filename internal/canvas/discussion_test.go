package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDiscussionView = `{
	"participants": [
		{"id": 1, "display_name": "Ada"},
		{"id": 2, "display_name": "Ben"}
	],
	"view": [
		{
			"id": 10, "user_id": 1, "parent_id": null, "message": "<p>hi</p>",
			"created_at": "2024-02-01T10:00:00Z",
			"replies": [
				{
					"id": 11, "user_id": 2, "parent_id": 10, "message": "yo",
					"replies": [
						{"id": 12, "parent_id": 11, "deleted": true, "editor_id": 1}
					]
				},
				{"id": 13, "user_id": 1, "parent_id": 10, "message": "again"}
			]
		},
		{"id": 20, "user_id": 2, "parent_id": null, "message": "top"}
	]
}`

func TestDiscussionEntries(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.respond(http.MethodGet, "/courses/42/discussion_topics/5", http.StatusOK, `{"id": 5, "title": "Week 1"}`)
	f.respond(http.MethodGet, "/courses/42/discussion_topics/5/view", http.StatusOK, testDiscussionView)

	discussion, err := course.Discussion(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Week 1", discussion.Title)

	entries, err := discussion.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 5)
	require.Len(t, discussion.Participants, 2)

	require.Equal(t, []int64{11, 13}, entries[10].ReplyList)
	require.Equal(t, []int64{12}, entries[11].ReplyList)
	require.Equal(t, []int64{}, entries[20].ReplyList)

	require.Equal(t, "Ada", entries[10].UserName)
	require.Equal(t, "Ben", entries[11].UserName)
	require.Equal(t, "hi\n", entries[10].MessageText)

	deleted := entries[12]
	require.Equal(t, deletedMessage, *deleted.Message)
	require.Equal(t, int64(1), *deleted.UserID)
	require.Equal(t, "Ada", deleted.UserName)
	message, _ := deleted.Str("message")
	require.Equal(t, deletedMessage, message)

	for _, entry := range entries {
		require.Len(t, entry.Lineage, 3)
		courseId, _ := entry.Int("course_id")
		require.Equal(t, int64(42), courseId)
		discussionId, _ := entry.Int("discussion_id")
		require.Equal(t, int64(5), discussionId)
	}
}

func TestDiscussionEntriesAuthorLookup(t *testing.T) {
	cases := []struct {
		name  string
		entry string
		fails bool
	}{
		{name: "unknown participant", entry: `{"id": 10, "user_id": 3, "message": "who"}`, fails: true},
		{name: "null author", entry: `{"id": 10, "user_id": null, "message": "who"}`, fails: true},
		{name: "deleted without editor", entry: `{"id": 10, "deleted": true, "editor_id": null}`, fails: true},
		{name: "no author field", entry: `{"id": 10, "message": "system"}`, fails: false},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			f := newFakeCanvas(t)
			s := f.session(t, "")
			course := f.course(t, s)

			f.respond(http.MethodGet, "/courses/42/discussion_topics/5/view", http.StatusOK, `{
				"participants": [{"id": 1, "display_name": "Ada"}],
				"view": [`+test.entry+`]
			}`)

			discussion, err := newDiscussion(course, []byte(`{"id": 5, "title": "Week 1"}`))
			require.NoError(t, err)
			entries, err := discussion.Entries(context.Background())
			if test.fails {
				require.True(t, errors.Is(err, ErrLookup), "%v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "", entries[10].UserName)
		})
	}
}

func TestFlattenReplies(t *testing.T) {
	flat, err := flattenReplies(nil)
	require.NoError(t, err)
	require.Len(t, flat, 0)

	var view discussionView
	require.NoError(t, json.Unmarshal([]byte(testDiscussionView), &view))
	flat, err = flattenReplies(view.View)
	require.NoError(t, err)
	require.Len(t, flat, 5)
}
