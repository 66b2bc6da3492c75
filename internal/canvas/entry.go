package canvas

import (
	"fmt"
	"slices"

	"canvas-access/pkg/htmlutil"
)

const deletedMessage = "DELETED MESSAGE"

// Entry is a single post of a discussion, top level or reply.
type Entry struct {
	Entity

	UserID    *int64  `json:"user_id"`
	EditorID  *int64  `json:"editor_id"`
	ParentID  *int64  `json:"parent_id"`
	Message   *string `json:"message"`
	Deleted   bool    `json:"deleted"`
	CreatedAt *string `json:"created_at"`

	UserName    string  `json:"-"`
	MessageText string  `json:"-"`
	ReplyList   []int64 `json:"-"`
}

func newEntry(d *Discussion, raw []byte) (*Entry, error) {
	e := &Entry{}
	e.Kind = KindEntry
	inherit(&e.Entity, d, "course_id", "course_name")
	e.setInherited("discussion_id", d.Id())
	e.setInherited("discussion_title", d.Title)

	err := hydrate(&e.Entity, raw, e)
	if err != nil {
		return nil, err
	}

	if e.Deleted {
		msg := deletedMessage
		e.Message = &msg
		e.UserID = e.EditorID
		e.set("message", msg)
		e.set("user_id", e.UserID)
	}
	if e.Message != nil {
		e.MessageText, err = htmlutil.ToText(*e.Message)
		if err != nil {
			return nil, fmt.Errorf("entry %d message: %w", e.Id(), err)
		}
	}
	e.set("message_text", e.MessageText)
	e.ReplyList = []int64{}
	e.InfoKeys = []string{"course_id", "course_name", "discussion_id", "id", "user_name"}
	return e, nil
}

func (e *Entry) String() string {
	courseId, _ := e.Int("course_id")
	parent := "<nil>"
	if e.ParentID != nil {
		parent = fmt.Sprint(*e.ParentID)
	}
	return fmt.Sprintf(
		"%s [Course ID: %d]: %d \tAuthor: %s \tReply to: %s \tReplies: %v",
		e.Kind, courseId, e.Id(), e.UserName, parent, e.ReplyList,
	)
}

func (e *Entry) sortReplies() {
	slices.Sort(e.ReplyList)
	e.set("reply_list", e.ReplyList)
}
