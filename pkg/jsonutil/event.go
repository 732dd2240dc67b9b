// Package jsonutil encodes event envelopes to and from the on-disk JSONL
// representation: payload fields are flattened to the top level alongside the
// envelope fields so queries never need to descend into a nested object.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/actionlog-project/actionlog/pkg/model"
)

// TimestampLayout is ISO-8601 with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// EncodeEvent serializes an event as a single JSON line (without trailing
// newline). Payload keys that collide with envelope field names are dropped
// and returned so the caller can warn.
func EncodeEvent(e *model.Event) ([]byte, []string, error) {
	flat := make(map[string]any, len(e.Payload)+5)
	flat["timestamp"] = e.Timestamp.UTC().Format(TimestampLayout)
	flat["sequence_number"] = e.Sequence
	flat["event_type"] = string(e.Type)
	flat["session_id"] = e.SessionID
	flat["status"] = string(e.Status)

	var dropped []string
	for k, v := range e.Payload {
		if model.EnvelopeFields[k] {
			dropped = append(dropped, k)
			continue
		}
		flat[k] = v
	}

	line, err := json.Marshal(flat)
	if err != nil {
		return nil, dropped, fmt.Errorf("marshal event %d: %w", e.Sequence, err)
	}
	return line, dropped, nil
}

// DecodeEvent parses one JSONL line back into an event envelope. Unknown
// top-level fields become the payload.
func DecodeEvent(line []byte) (*model.Event, error) {
	var flat map[string]any
	if err := json.Unmarshal(line, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal event line: %w", err)
	}

	e := &model.Event{
		SessionID: model.DefaultSessionID,
		Payload:   make(map[string]any),
	}

	if raw, ok := flat["timestamp"].(string); ok {
		ts, err := time.Parse(TimestampLayout, raw)
		if err != nil {
			// Tolerate plain RFC 3339 written by older versions.
			ts, err = time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("parse event timestamp %q: %w", raw, err)
			}
		}
		e.Timestamp = ts
	}
	if seq, ok := flat["sequence_number"].(float64); ok {
		e.Sequence = uint64(seq)
	}
	if t, ok := flat["event_type"].(string); ok {
		e.Type = model.EventType(t)
	}
	if s, ok := flat["session_id"].(string); ok {
		e.SessionID = s
	}
	if st, ok := flat["status"].(string); ok {
		e.Status = model.Status(st)
	}

	for k, v := range flat {
		if !model.EnvelopeFields[k] {
			e.Payload[k] = v
		}
	}
	if len(e.Payload) == 0 {
		e.Payload = nil
	}
	return e, nil
}
