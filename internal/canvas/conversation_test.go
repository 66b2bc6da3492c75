package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConversation = `{
	"id": 300,
	"subject": "Lab question",
	"context_name": "Physics",
	"context_code": "course_42",
	"message_count": 2,
	"last_message_at": "2024-02-03T10:00:00Z",
	"last_authored_message_at": "2024-02-02T10:00:00Z",
	"participants": [
		{"id": 1, "name": "Ada"},
		{"id": 2, "name": "Ben"},
		{"id": 3, "name": "Cy"}
	]
}`

func TestConversation(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	f.respond(http.MethodGet, "/conversations/300", http.StatusOK, strings.Replace(
		testConversation,
		`"participants"`,
		`"messages": [
			{"id": 1, "author_id": 2, "body": "hello", "participating_user_ids": [1, 2]},
			{"id": 2, "author_id": 1, "body": "hi", "participating_user_ids": [1, 2, 3]}
		],
		"participants"`,
		1,
	))

	conversation, err := s.Conversation(context.Background(), 300)
	require.NoError(t, err)
	require.Equal(t, []string{"Ada", "Ben", "Cy"}, conversation.ParticipantList)
	require.NotNil(t, conversation.LastActivity)
	require.Equal(t, "2024-02-03T10:00:00Z", *conversation.LastActivity)

	messages, err := conversation.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)

	require.Equal(t, "Ben", messages[1].AuthorName)
	require.Equal(t, []string{"Ada", "Ben"}, messages[1].ParticipatingUsers)
	require.Equal(t, []string{"Ada", "Ben", "Cy"}, messages[2].ParticipatingUsers)

	subject, _ := messages[1].Str("conversation_subject")
	require.Equal(t, "Lab question", subject)
	contextName, _ := messages[1].Str("context_name")
	require.Equal(t, "Physics", contextName)
	_, ok := messages[1].Inherited("participants")
	require.True(t, ok)
}

func TestConversationNoActivity(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	conversation, err := newConversation(s, []byte(`{
		"id": 1, "subject": "quiet", "participants": [],
		"last_message_at": null, "last_authored_message_at": null
	}`))
	require.NoError(t, err)
	require.Nil(t, conversation.LastActivity)
	require.Equal(t, []string{}, conversation.ParticipantList)
}

func TestMessageUnknownAuthor(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	conversation, err := newConversation(s, []byte(testConversation))
	require.NoError(t, err)

	_, err = newMessage(conversation, []byte(`{"id": 9, "author_id": 77, "body": "?"}`))
	require.True(t, errors.Is(err, ErrLookup))
}

func TestConversationsQuery(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/conversations", []string{testConversation}, 10)

	{
		conversations, err := course.Conversations(context.Background(), ConversationQuery{})
		require.NoError(t, err)
		require.Len(t, conversations, 1)

		courseName, _ := conversations[300].Str("course_name")
		require.Equal(t, "Physics", courseName)
		parent, _ := conversations[300].Parent()
		require.Equal(t, KindCourse, parent.Kind)
	}

	{
		_, err := s.Conversations(context.Background(), ConversationQuery{
			Count: 5,
			Scope: []string{ScopeReadAndUnread, "starred", "bogus"},
		})
		require.NoError(t, err)
		require.Equal(t, 1, f.tel.Count("warning"))
	}

	var queries []url.Values
	for _, request := range f.requestLog() {
		parsed, err := url.Parse(strings.TrimPrefix(request, "GET "))
		require.NoError(t, err)
		queries = append(queries, parsed.Query())
	}
	require.Len(t, queries, 3)

	require.Equal(t, []string{"course_42"}, queries[0]["filter[]"])
	require.Equal(t, "100", queries[0].Get("per_page"))

	require.Equal(t, "5", queries[1].Get("per_page"))
	require.Empty(t, queries[1].Get("scope"))
	require.Empty(t, queries[1]["filter[]"])
	require.Equal(t, "starred", queries[2].Get("scope"))
}

func TestStartConversation(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.respond(http.MethodGet, "/courses/42", http.StatusOK, testCourse)
	f.respond(http.MethodPost, "/conversations", http.StatusCreated, "["+testConversation+"]")

	ada, err := newUser(course, []byte(`{"id": 1, "name": "Ada"}`))
	require.NoError(t, err)
	ben, err := newUser(course, []byte(`{"id": 2, "name": "Ben"}`))
	require.NoError(t, err)

	conversations, err := s.StartConversation(context.Background(), []*User{ada, ben}, "Lab question", "see you", false)
	require.NoError(t, err)
	require.Len(t, conversations, 1)

	parent, _ := conversations[300].Parent()
	require.Equal(t, KindCourse, parent.Kind)
	require.Equal(t, int64(42), *parent.ID)

	require.Equal(t, []string{"course_42"}, f.form("context_code"))
	require.Equal(t, []string{"1", "2"}, f.form("recipients[]"))
	require.Equal(t, []string{"false"}, f.form("group_conversation"))
	require.Equal(t, []string{"see you"}, f.form("body"))
}

func TestStartConversationFailure(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	f.respond(http.MethodPost, "/conversations", http.StatusBadRequest, `{"errors": [{"message": "invalid recipients"}]}`)

	loner, err := newUser(s, []byte(`{"id": 1, "name": "Ada"}`))
	require.NoError(t, err)

	conversations, err := s.StartConversation(context.Background(), []*User{loner}, "hi", "hello", true)
	require.NoError(t, err)
	require.Len(t, conversations, 0)
	require.NotNil(t, conversations)
	require.Equal(t, 1, f.tel.Count("warning"))
	require.Nil(t, f.form("context_code"))
}

func TestRecipientContext(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	physics := f.course(t, s)
	art, err := s.CourseFromJSON([]byte(`{"id": 43, "name": "Art"}`))
	require.NoError(t, err)

	user := func(parent node, id string) *User {
		u, err := newUser(parent, []byte(`{"id": `+id+`}`))
		require.NoError(t, err)
		return u
	}

	require.Equal(t, "course_42", recipientContext([]*User{user(physics, "1"), user(physics, "2")}))
	require.Equal(t, "", recipientContext([]*User{user(physics, "1"), user(art, "2")}))
	require.Equal(t, "", recipientContext([]*User{user(physics, "1"), user(s, "2")}))
	require.Equal(t, "", recipientContext([]*User{user(s, "1")}))
}

func TestReply(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")

	conversation, err := newConversation(s, []byte(testConversation))
	require.NoError(t, err)
	message, err := newMessage(conversation, []byte(`{"id": 9, "author_id": 2, "body": "?"}`))
	require.NoError(t, err)

	f.respond(http.MethodPost, "/conversations/300/add_message", http.StatusOK, testConversation)
	require.NoError(t, message.Reply(context.Background(), "answer"))
	require.Equal(t, []string{"2"}, f.form("recipients[]"))
	require.Equal(t, []string{"answer"}, f.form("body"))

	require.NoError(t, message.ReplyAll(context.Background(), "everyone", []int64{1, 3}))
	require.Equal(t, []string{"1", "3"}, f.form("recipients[]"))

	f.respond(http.MethodPost, "/conversations/300/add_message", http.StatusForbidden, `{}`)
	err = message.Reply(context.Background(), "denied")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusForbidden, statusErr.Status)
}
