package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"canvas-access/internal/components/chrono"
)

var zuluRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|\+00:00)$`)

// ParseZulu parses a UTC timestamp in the `YYYY-MM-DDTHH:MM:SSZ` form or its
// `+00:00` equivalent. Anything else, including other offsets and bare dates, fails.
func ParseZulu(s string) (time.Time, bool) {
	if !zuluRegex.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// IsZuluTimestamp reports whether s is a UTC timestamp as accepted by ParseZulu.
func IsZuluTimestamp(s string) bool {
	_, ok := ParseZulu(s)
	return ok
}

// hydrate copies a raw JSON object onto an entity. Every key becomes part of the payload
// layer, timestamp strings produce `_dt`, `_display` and (with a timezone) `_localtime`
// derivatives, and `typed` (usually the entity struct itself) is decoded from the same bytes.
func hydrate(e *Entity, raw []byte, typed any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload Fields
	err := dec.Decode(&payload)
	if err != nil {
		return fmt.Errorf("decode %s: %w", e.Kind, err)
	}
	if payload == nil {
		return fmt.Errorf("decode %s: expected a json object", e.Kind)
	}
	if typed != nil {
		err = json.Unmarshal(raw, typed)
		if err != nil {
			return fmt.Errorf("decode %s: %w", e.Kind, err)
		}
	}

	e.payload = payload
	if value, ok := payload["id"]; ok {
		if id, ok := toInt(value); ok {
			e.ID = &id
		}
	}

	for key, value := range payload {
		s, ok := value.(string)
		if !ok {
			continue
		}
		deriveTimestamp(e, key, s)
	}
	return nil
}

func deriveTimestamp(e *Entity, key, value string) {
	t, ok := ParseZulu(value)
	if !ok {
		return
	}
	e.set(key+"_dt", t)
	if e.ctx.tz == nil {
		e.set(key+"_display", t.Format(time.RFC3339))
		return
	}
	local := chrono.LocalString(t, e.ctx.tz)
	e.set(key+"_localtime", local)
	e.set(key+"_display", local)
}

// optionalDisplay returns the `_display` derivative of a timestamp field if present.
func optionalDisplay(e *Entity, key string) *string {
	display, ok := e.Str(key + "_display")
	if !ok {
		return nil
	}
	return &display
}
