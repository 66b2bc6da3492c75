package canvas

import (
	"context"
	"encoding/json"
	"fmt"
)

const report_discussion_get_entries = "discussion.get-entries"

type DiscussionParticipant struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_image_url"`
	HtmlUrl     string `json:"html_url"`
}

type Discussion struct {
	Entity

	Title    string  `json:"title"`
	Message  *string `json:"message"`
	PostedAt *string `json:"posted_at"`

	// Participants is filled by Entries.
	Participants []DiscussionParticipant `json:"-"`
}

func newDiscussion(course *Course, raw []byte) (*Discussion, error) {
	d := &Discussion{}
	d.Kind = KindDiscussion
	inherit(&d.Entity, course)
	inheritCourse(&d.Entity, course)

	err := hydrate(&d.Entity, raw, d)
	if err != nil {
		return nil, err
	}
	d.InfoKeys = []string{"course_id", "course_name", "title"}
	return d, nil
}

func (d *Discussion) String() string {
	courseId, _ := d.Int("course_id")
	return fmt.Sprintf("%s [Course ID: %d]: %d \t %s", d.Kind, courseId, d.Id(), d.Title)
}

type discussionView struct {
	Participants []DiscussionParticipant `json:"participants"`
	View         []json.RawMessage       `json:"view"`
}

type entryReplies struct {
	Replies []json.RawMessage `json:"replies"`
}

// flattenReplies returns the given entries followed by every nested reply, depth first.
func flattenReplies(entries []json.RawMessage) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, raw := range entries {
		out = append(out, raw)

		var nested entryReplies
		err := json.Unmarshal(raw, &nested)
		if err != nil {
			return nil, err
		}
		replies, err := flattenReplies(nested.Replies)
		if err != nil {
			return nil, err
		}
		out = append(out, replies...)
	}
	return out, nil
}

// Entries gets the full view of the discussion, top level entries and every nested reply
// are returned flat. Each entry is named after its author and lists the ids of its direct
// replies.
//
// Endpoint: /courses/{course_id}/discussion_topics/{topic_id}/view
func (d *Discussion) Entries(ctx context.Context) (map[int64]*Entry, error) {
	courseId, _ := d.Int("course_id")
	body, err := d.ctx.getDetail(
		ctx,
		d.ctx.endpoint("/courses/%d/discussion_topics/%d/view", courseId, d.Id()),
		nil,
	)
	if err != nil {
		d.ctx.tel.ReportBroken(report_discussion_get_entries, err, d.Id())
		return nil, err
	}

	var view discussionView
	err = json.Unmarshal(body, &view)
	if err != nil {
		err = fmt.Errorf("decode discussion %d view: %w", d.Id(), err)
		d.ctx.tel.ReportBroken(report_discussion_get_entries, err)
		return nil, err
	}
	d.Participants = view.Participants

	flat, err := flattenReplies(view.View)
	if err != nil {
		err = fmt.Errorf("decode discussion %d replies: %w", d.Id(), err)
		d.ctx.tel.ReportBroken(report_discussion_get_entries, err)
		return nil, err
	}
	entries, err := collect(flat, func(raw []byte) (*Entry, error) {
		return newEntry(d, raw)
	})
	if err != nil {
		return nil, err
	}

	for id, entry := range entries {
		if _, hasAuthor := entry.Attr("user_id"); hasAuthor {
			if entry.UserID == nil {
				return nil, fmt.Errorf("%w: entry %d has no author", ErrLookup, id)
			}
			name, ok := d.participantName(*entry.UserID)
			if !ok {
				return nil, fmt.Errorf("%w: author %d of entry %d is not a participant", ErrLookup, *entry.UserID, id)
			}
			entry.UserName = name
			entry.set("user_name", name)
		}
		if entry.ParentID != nil {
			parentEntry, ok := entries[*entry.ParentID]
			if !ok {
				return nil, fmt.Errorf("%w: parent %d of entry %d is not part of the discussion", ErrLookup, *entry.ParentID, id)
			}
			parentEntry.ReplyList = append(parentEntry.ReplyList, id)
		}
	}
	for _, entry := range entries {
		entry.sortReplies()
	}
	return entries, nil
}

func (d *Discussion) participantName(userId int64) (string, bool) {
	for _, participant := range d.Participants {
		if participant.ID == userId {
			return participant.DisplayName, true
		}
	}
	return "", false
}
