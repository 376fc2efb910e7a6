package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StorageKey is the key/value slot the task list is persisted under.
const StorageKey = "tasks"

var ErrMalformedSnapshot = errors.New("malformed task snapshot")

// record is the persisted shape of a Task. createdAt travels as a string so
// decoding controls how the timestamp is reconstructed.
type record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// Encode serializes the full list as a JSON array.
func Encode(list []Task) ([]byte, error) {
	recs := make([]record, 0, len(list))
	for _, t := range list {
		recs = append(recs, record{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return json.Marshal(recs)
}

// Decode parses a snapshot written by Encode. Any structural problem
// (bad JSON, unparsable timestamp, blank text, missing or duplicate id)
// yields ErrMalformedSnapshot.
func Decode(data []byte) ([]Task, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	seen := make(map[string]struct{}, len(recs))
	out := make([]Task, 0, len(recs))
	for i, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrMalformedSnapshot, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, r.ID)
		}
		seen[r.ID] = struct{}{}

		text := strings.TrimSpace(r.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: record %q has empty text", ErrMalformedSnapshot, r.ID)
		}
		ts, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", ErrMalformedSnapshot, r.ID, err)
		}
		out = append(out, Task{
			ID:        r.ID,
			Text:      text,
			Completed: r.Completed,
			CreatedAt: ts,
		})
	}
	return out, nil
}
