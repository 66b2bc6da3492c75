package canvas

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const report_message_reply = "message.reply"

type Message struct {
	Entity

	Body                 string  `json:"body"`
	AuthorID             int64   `json:"author_id"`
	CreatedAt            *string `json:"created_at"`
	Generated            bool    `json:"generated"`
	ParticipatingUserIDs []int64 `json:"participating_user_ids"`

	ConversationID     int64    `json:"-"`
	AuthorName         string   `json:"-"`
	ParticipatingUsers []string `json:"-"`
}

func newMessage(c *Conversation, raw []byte) (*Message, error) {
	m := &Message{ConversationID: c.Id()}
	m.Kind = KindMessage
	inherit(&m.Entity, c, "context_id", "context_name", "participants")
	m.setInherited("conversation_id", c.Id())
	m.setInherited("conversation_subject", c.Subject)

	err := hydrate(&m.Entity, raw, m)
	if err != nil {
		return nil, err
	}
	m.InfoKeys = []string{"context_name", "created_at_display", "participating_users", "author_name", "subject", "body"}

	author := slices.IndexFunc(c.Participants, func(p Participant) bool {
		return p.ID == m.AuthorID
	})
	if author < 0 {
		return nil, fmt.Errorf("%w: author %d of message %d is not a participant", ErrLookup, m.AuthorID, m.Id())
	}
	m.AuthorName = c.Participants[author].Name
	m.set("author_name", m.AuthorName)

	m.ParticipatingUsers = []string{}
	for _, participant := range c.Participants {
		if slices.Contains(m.ParticipatingUserIDs, participant.ID) {
			m.ParticipatingUsers = append(m.ParticipatingUsers, participant.Name)
		}
	}
	m.set("participating_users", m.ParticipatingUsers)

	return m, nil
}

func (m *Message) String() string {
	subject, _ := m.Str("conversation_subject")
	body := m.Body
	if len(body) > 100 {
		body = body[:100]
	}
	return fmt.Sprintf(
		"%s [From: %d, Subject: %s]: %d \t %s",
		m.Kind, m.AuthorID, subject, m.Id(), strings.ReplaceAll(body, "\n", "  "),
	)
}

// Reply sends a plain text reply to the author of the message.
//
// Endpoint: /conversations/{conversation_id}/add_message
func (m *Message) Reply(ctx context.Context, body string) error {
	return m.addMessage(ctx, body, []int64{m.AuthorID})
}

// ReplyAll sends a plain text reply to the given participants, or to every participant
// of the conversation when recipients is empty.
//
// Endpoint: /conversations/{conversation_id}/add_message
func (m *Message) ReplyAll(ctx context.Context, body string, recipients []int64) error {
	return m.addMessage(ctx, body, recipients)
}

func (m *Message) addMessage(ctx context.Context, body string, recipients []int64) error {
	form := url.Values{}
	form.Set("body", body)
	for _, id := range recipients {
		form.Add("recipients[]", strconv.FormatInt(id, 10))
	}

	endpoint := m.ctx.endpoint("/conversations/%d/add_message", m.ConversationID)
	res, err := m.ctx.post(ctx, endpoint, form)
	if err != nil {
		return err
	}
	if res.IsError() {
		err = &StatusError{Method: "POST", Url: endpoint, Status: res.StatusCode(), Body: res.String()}
		m.ctx.tel.ReportWarning(report_message_reply, err, m.ConversationID)
		return err
	}
	m.ctx.tel.ReportDebug("message sent", m.ConversationID, len(recipients))
	return nil
}
