package model

import (
	"encoding/json"
	"time"

	"ieeesou/store"
)

// marshalFlat writes an entity the way documents look on the wire: its
// fields next to id and the timestamps.
func marshalFlat(id string, created, updated time.Time, fields store.Fields, extra map[string]any) ([]byte, error) {
	out := make(map[string]any, len(fields)+len(extra)+3)
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	out["id"] = id
	out["createdAt"] = created
	out["updatedAt"] = updated
	return json.Marshal(out)
}
