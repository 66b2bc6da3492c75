package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	report_conversation_list  = "conversation.list"
	report_conversation_get   = "conversation.get"
	report_conversation_start = "conversation.start"
)

// ScopeReadAndUnread is the default conversation scope, it is sent without a scope param.
const ScopeReadAndUnread = "read_and_unread"

var conversationScopes = map[string]bool{
	"unread":   true,
	"starred":  true,
	"archived": true,
	"sent":     true,
}

// ConversationQuery selects conversations of the active user.
type ConversationQuery struct {
	// Count is the number of most recent conversations fetched per scope, 0 fetches every
	// page.
	Count int
	// Filter overrides the filter derived from the parent (`course_<id>` or `user_<id>`).
	Filter []string
	// Scope is queried one by one: read_and_unread, unread, starred, archived, sent.
	// Defaults to read_and_unread.
	Scope []string
}

// Participant is a member of a conversation.
type Participant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

type Conversation struct {
	Entity

	Subject               string        `json:"subject"`
	ContextCode           string        `json:"context_code"`
	ContextName           string        `json:"context_name"`
	WorkflowState         string        `json:"workflow_state"`
	MessageCount          int           `json:"message_count"`
	LastMessage           *string       `json:"last_message"`
	LastMessageAt         *string       `json:"last_message_at"`
	LastAuthoredMessageAt *string       `json:"last_authored_message_at"`
	Participants          []Participant `json:"participants"`

	ParticipantList []string `json:"-"`
	// LastActivity is the latest of the displayed last message times, nil if there are none.
	LastActivity *string `json:"-"`
}

func newConversation(parent node, raw []byte) (*Conversation, error) {
	c := &Conversation{}
	c.Kind = KindConversation

	switch p := parent.(type) {
	case *Session:
		inherit(&c.Entity, p)
	case *User:
		inherit(&c.Entity, p, "course_id", "course_name")
		c.setInherited("user_id", p.Id())
		c.setInherited("user_name", p.Name)
	case *Course:
		inherit(&c.Entity, p)
		inheritCourse(&c.Entity, p)
	default:
		return nil, ErrParentKind{Child: KindConversation, Parent: parent.entity().Kind}
	}

	err := hydrate(&c.Entity, raw, c)
	if err != nil {
		return nil, err
	}
	c.InfoKeys = []string{"context_code", "context_name", "participant_list", "subject", "message_count"}

	c.ParticipantList = make([]string, len(c.Participants))
	for i, participant := range c.Participants {
		c.ParticipantList[i] = participant.Name
	}
	c.set("participant_list", c.ParticipantList)

	var activity []string
	if c.LastAuthoredMessageAt != nil {
		if display := optionalDisplay(&c.Entity, "last_authored_message_at"); display != nil {
			activity = append(activity, *display)
		}
	}
	if c.LastMessageAt != nil {
		if display := optionalDisplay(&c.Entity, "last_message_at"); display != nil {
			activity = append(activity, *display)
		}
	}
	for _, display := range activity {
		if c.LastActivity == nil || display > *c.LastActivity {
			latest := display
			c.LastActivity = &latest
		}
	}
	c.set("last_activity", c.LastActivity)

	return c, nil
}

func (c *Conversation) String() string {
	lastActivity := "<nil>"
	if c.LastActivity != nil {
		lastActivity = *c.LastActivity
	}
	parent, _ := c.Parent()
	return fmt.Sprintf(
		"%s (Parent: %s): %d \t%s \t%s \t%v",
		c.Kind, parent.Kind, c.Id(), lastActivity, c.Subject, c.ParticipantList,
	)
}

type conversationDetail struct {
	Messages []json.RawMessage `json:"messages"`
}

// Messages gets every message of the conversation.
//
// Endpoint: /conversations/{conversation_id}
func (c *Conversation) Messages(ctx context.Context) (map[int64]*Message, error) {
	body, err := c.ctx.getDetail(ctx, c.ctx.endpoint("/conversations/%d", c.Id()), nil)
	if err != nil {
		c.ctx.tel.ReportBroken(report_conversation_get, err, c.Id())
		return nil, err
	}
	var detail conversationDetail
	err = json.Unmarshal(body, &detail)
	if err != nil {
		return nil, fmt.Errorf("decode conversation %d: %w", c.Id(), err)
	}
	return collect(detail.Messages, func(raw []byte) (*Message, error) {
		return newMessage(c, raw)
	})
}

// Conversation gets a single conversation of the active user.
//
// Endpoint: /conversations/{conversation_id}
func (s *Session) Conversation(ctx context.Context, conversationId int64) (*Conversation, error) {
	raw, err := s.ctx.getDetail(ctx, s.ctx.endpoint("/conversations/%d", conversationId), nil)
	if err != nil {
		s.ctx.tel.ReportBroken(report_conversation_get, err, conversationId)
		return nil, err
	}
	return newConversation(s, raw)
}

// Conversations gets the conversations of the active user.
//
// Endpoint: /conversations
func (s *Session) Conversations(ctx context.Context, query ConversationQuery) (map[int64]*Conversation, error) {
	return conversations(ctx, s, query)
}

// conversations runs a query once per scope. Courses and users filter the results to
// themselves unless the query carries its own filter.
func conversations(ctx context.Context, parent node, query ConversationQuery) (map[int64]*Conversation, error) {
	p := parent.entity()

	params := url.Values{}
	switch p.Kind {
	case KindCourse:
		params.Add("filter[]", fmt.Sprintf("course_%d", p.Id()))
	case KindUser:
		params.Add("filter[]", fmt.Sprintf("user_%d", p.Id()))
	}
	if query.Filter != nil {
		params.Del("filter[]")
		for _, filter := range query.Filter {
			params.Add("filter[]", filter)
		}
	}
	if query.Count > 0 {
		params.Set("per_page", strconv.Itoa(query.Count))
	} else {
		params.Set("per_page", "100")
	}

	scopes := query.Scope
	if len(scopes) == 0 {
		scopes = []string{ScopeReadAndUnread}
	}

	endpoint := p.ctx.endpoint("/conversations")
	var raws []json.RawMessage
	for _, scope := range scopes {
		scoped := cloneValues(params)
		switch {
		case scope == ScopeReadAndUnread:
		case conversationScopes[scope]:
			scoped.Set("scope", scope)
		default:
			p.ctx.tel.ReportWarning(report_conversation_list, fmt.Errorf("unknown scope %q", scope))
			continue
		}

		var (
			page []json.RawMessage
			err  error
		)
		if query.Count > 0 {
			page, err = p.ctx.getPage(ctx, endpoint, scoped)
		} else {
			page, err = p.ctx.getList(ctx, endpoint, scoped)
		}
		if err != nil {
			p.ctx.tel.ReportBroken(report_conversation_list, err, scope)
			return nil, err
		}
		raws = append(raws, page...)
	}

	return collect(raws, func(raw []byte) (*Conversation, error) {
		return newConversation(parent, raw)
	})
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, v := range values {
		out[key] = append([]string(nil), v...)
	}
	return out
}

// StartConversation sends a new message to the recipients. The conversation is created in
// the context of a course only if every recipient was fetched through that same course.
//
// If Canvas rejects the message an empty result is returned and the failure is reported
// as a warning.
//
// Endpoint: /conversations
func (s *Session) StartConversation(
	ctx context.Context,
	recipients []*User,
	subject, body string,
	groupConversation bool,
) (map[int64]*Conversation, error) {
	contextCode := recipientContext(recipients)

	form := url.Values{}
	for _, recipient := range recipients {
		form.Add("recipients[]", strconv.FormatInt(recipient.Id(), 10))
	}
	form.Set("group_conversation", strconv.FormatBool(groupConversation))
	form.Set("subject", subject)
	form.Set("body", body)
	if contextCode != "" {
		form.Set("context_code", contextCode)
	}

	res, err := s.ctx.post(ctx, s.ctx.endpoint("/conversations"), form)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		s.ctx.tel.ReportWarning(
			report_conversation_start,
			&StatusError{Method: "POST", Url: res.Request.URL, Status: res.StatusCode(), Body: res.String()},
		)
		return map[int64]*Conversation{}, nil
	}

	var parent node = s
	if courseId, ok := strings.CutPrefix(contextCode, "course_"); ok {
		id, err := strconv.ParseInt(courseId, 10, 64)
		if err != nil {
			return nil, err
		}
		course, err := s.Course(ctx, id)
		if err != nil {
			return nil, err
		}
		parent = course
	}

	var raws []json.RawMessage
	err = json.Unmarshal(res.Body(), &raws)
	if err != nil {
		err = fmt.Errorf("decode started conversations: %w", err)
		s.ctx.tel.ReportBroken(report_conversation_start, err)
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Conversation, error) {
		return newConversation(parent, raw)
	})
}

// recipientContext returns `course_<id>` if every recipient's parent is the same course,
// otherwise an empty string.
func recipientContext(recipients []*User) string {
	code := ""
	for i, recipient := range recipients {
		current := ""
		if parent, ok := recipient.Parent(); ok && parent.Kind == KindCourse && parent.ID != nil {
			current = fmt.Sprintf("course_%d", *parent.ID)
		}
		if current == "" {
			return ""
		}
		if i > 0 && current != code {
			return ""
		}
		code = current
	}
	return code
}
