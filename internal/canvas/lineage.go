package canvas

import (
	"fmt"
	"time"

	"canvas-access/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

// Kind tags every entity with the API resource it wraps.
type Kind int

const (
	KindSession Kind = iota
	KindCourse
	KindAssignment
	KindAssignmentGroup
	KindSubmission
	KindUser
	KindStudent
	KindDiscussion
	KindEntry
	KindConversation
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "Canvas"
	case KindCourse:
		return "Course"
	case KindAssignment:
		return "Assignment"
	case KindAssignmentGroup:
		return "AssignmentGroup"
	case KindSubmission:
		return "Submission"
	case KindUser:
		return "User"
	case KindStudent:
		return "Student"
	case KindDiscussion:
		return "Discussion"
	case KindEntry:
		return "Entry"
	case KindConversation:
		return "Conversation"
	case KindMessage:
		return "Message"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Ancestor is one step of a lineage, ID is nil for the root session.
type Ancestor struct {
	ID   *int64
	Kind Kind
}

func (a Ancestor) String() string {
	if a.ID == nil {
		return a.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", a.Kind, *a.ID)
}

// Lineage is the ordered trail of ancestors that produced an entity, earliest first.
type Lineage []Ancestor

// Last returns the direct parent of the entity the lineage belongs to.
func (l Lineage) Last() (Ancestor, bool) {
	if len(l) == 0 {
		return Ancestor{}, false
	}
	return l[len(l)-1], true
}

// Context holds the contextual fields every entity inherits from its parent.
type Context struct {
	http       *resty.Client
	auth       string
	tz         *time.Location
	baseApiUrl string
	tel        telemetry.API
}

func (c Context) BaseApiUrl() string {
	return c.baseApiUrl
}

func (c Context) Timezone() *time.Location {
	return c.tz
}

// node is implemented by every entity through its embedded Entity.
type node interface {
	entity() *Entity
}

// inherit passes the contextual fields and the requested extra keys from parent to child,
// and extends the child's lineage with the parent. Extra keys the parent cannot resolve
// are skipped.
func inherit(child *Entity, parent node, extraKeys ...string) {
	p := parent.entity()

	child.ctx = p.ctx
	if child.inherited == nil {
		child.inherited = Fields{}
	}
	for _, key := range extraKeys {
		value, ok := p.Attr(key)
		if !ok {
			continue
		}
		child.inherited[key] = value
	}

	lineage := make(Lineage, len(p.Lineage), len(p.Lineage)+1)
	copy(lineage, p.Lineage)
	child.Lineage = append(lineage, Ancestor{ID: p.ID, Kind: p.Kind})
}

// ErrParentKind is returned when an entity is constructed from a parent kind it cannot descend from.
type ErrParentKind struct {
	Child  Kind
	Parent Kind
}

func (e ErrParentKind) Error() string {
	return fmt.Sprintf("a %s cannot be constructed from a %s", e.Child, e.Parent)
}
