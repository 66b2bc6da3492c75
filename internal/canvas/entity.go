package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrLookup is returned when an id that should resolve against another collection
// (a participant, an assignment, a parent entry) does not.
var ErrLookup = errors.New("lookup failed")

// Fields is one layer of named entity attributes.
type Fields map[string]any

// Entity is the common part of every API resource wrapper.
//
// Attributes live in three layers: `inherited` is filled from the parent before
// hydration, `payload` is the JSON object returned by the API and `derived` holds
// timestamp derivatives and enrichment. Lookups resolve derived, then payload, then
// inherited.
type Entity struct {
	ID       *int64   `json:"-"`
	Kind     Kind     `json:"-"`
	Lineage  Lineage  `json:"-"`
	InfoKeys []string `json:"-"`

	ctx       Context
	inherited Fields
	payload   Fields
	derived   Fields
}

func (e *Entity) entity() *Entity {
	return e
}

// Context returns the contextual fields of the entity.
func (e *Entity) Context() Context {
	return e.ctx
}

// Id returns the entity id, or 0 for the root session.
func (e *Entity) Id() int64 {
	if e.ID == nil {
		return 0
	}
	return *e.ID
}

// Parent returns the direct ancestor of the entity.
func (e *Entity) Parent() (Ancestor, bool) {
	return e.Lineage.Last()
}

// Attr resolves an attribute by name across all layers. A JSON null is
// reported as present with a nil value.
func (e *Entity) Attr(key string) (any, bool) {
	switch key {
	case "id":
		if e.ID == nil {
			return nil, true
		}
		return *e.ID, true
	case "type":
		return e.Kind.String(), true
	}
	for _, layer := range []Fields{e.derived, e.payload, e.inherited} {
		if value, ok := layer[key]; ok {
			return value, true
		}
	}
	return nil, false
}

// Inherited returns an attribute from the inherited layer only.
func (e *Entity) Inherited(key string) (any, bool) {
	value, ok := e.inherited[key]
	return value, ok
}

// Payload returns an attribute from the API payload only.
func (e *Entity) Payload(key string) (any, bool) {
	value, ok := e.payload[key]
	return value, ok
}

// Keys returns every attribute name the entity can resolve, sorted.
func (e *Entity) Keys() []string {
	seen := map[string]struct{}{"id": {}, "type": {}}
	for _, layer := range []Fields{e.derived, e.payload, e.inherited} {
		for key := range layer {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Float resolves a numeric attribute, null and non-numeric values are reported as absent.
func (e *Entity) Float(key string) (float64, bool) {
	value, ok := e.Attr(key)
	if !ok {
		return 0, false
	}
	return toFloat(value)
}

// Int resolves an integer attribute.
func (e *Entity) Int(key string) (int64, bool) {
	value, ok := e.Attr(key)
	if !ok {
		return 0, false
	}
	return toInt(value)
}

// Str resolves a string attribute.
func (e *Entity) Str(key string) (string, bool) {
	value, ok := e.Attr(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Time resolves the parsed instant of a timestamp attribute (the `<key>_dt` field).
func (e *Entity) Time(key string) (time.Time, bool) {
	value, ok := e.Attr(key + "_dt")
	if !ok {
		return time.Time{}, false
	}
	t, ok := value.(time.Time)
	return t, ok
}

func (e *Entity) set(key string, value any) {
	if e.derived == nil {
		e.derived = Fields{}
	}
	e.derived[key] = value
}

func (e *Entity) setInherited(key string, value any) {
	if e.inherited == nil {
		e.inherited = Fields{}
	}
	e.inherited[key] = value
}

// Info renders the id plus the attributes selected in InfoKeys.
func (e *Entity) Info() string {
	var out strings.Builder
	fmt.Fprintf(&out, "%s info:", e.Kind)
	for _, key := range append([]string{"id"}, e.InfoKeys...) {
		value, ok := e.Attr(key)
		if !ok {
			continue
		}
		fmt.Fprintf(&out, "\n\t%s:\t%s", key, formatValue(value))
	}
	return out.String()
}

// AllInfo renders every attribute of the entity sorted by name.
func (e *Entity) AllInfo() string {
	var out strings.Builder
	fmt.Fprintf(&out, "%s all info:", e.Kind)
	for _, key := range e.Keys() {
		value, _ := e.Attr(key)
		fmt.Fprintf(&out, "\n\t%s:\t%s", key, formatValue(value))
	}
	return out.String()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case *int64:
		if v == nil {
			return "<nil>"
		}
		return strconv.FormatInt(*v, 10)
	case *float64:
		if v == nil {
			return "<nil>"
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprint(value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case *int64:
		if v == nil {
			return 0, false
		}
		return float64(*v), true
	}
	return 0, false
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		i, err := v.Int64()
		if err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case *int64:
		if v == nil {
			return 0, false
		}
		return *v, true
	}
	return 0, false
}

// Normalize turns a resolved attribute into a comparable Go value: numbers become
// float64, typed pointers are dereferenced and nil pointers become nil.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, time.Time:
		return v
	case *string:
		if v == nil {
			return nil
		}
		return *v
	}
	if f, ok := toFloat(value); ok {
		return f
	}
	switch value.(type) {
	case *float64, *int64:
		return nil
	}
	return value
}
