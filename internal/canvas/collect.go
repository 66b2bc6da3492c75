package canvas

import (
	"encoding/json"
	"fmt"
)

// collect wraps every raw object of a list response into an entity and keys the results
// by id. Duplicate ids overwrite each other.
func collect[T node](raws []json.RawMessage, build func(raw []byte) (T, error)) (map[int64]T, error) {
	out := make(map[int64]T, len(raws))
	for _, raw := range raws {
		item, err := build(raw)
		if err != nil {
			return nil, err
		}
		e := item.entity()
		if e.ID == nil {
			return nil, fmt.Errorf("%w: %s payload without an id", ErrLookup, e.Kind)
		}
		out[*e.ID] = item
	}
	return out, nil
}
