package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/actionlog-project/actionlog/pkg/model"
)

func TestEventType_Valid(t *testing.T) {
	for _, k := range model.AllEventTypes {
		assert.True(t, k.Valid(), "expected %s to be valid", k)
	}
	assert.False(t, model.EventType("made_up").Valid())
	assert.False(t, model.EventType("").Valid())
}

func TestAllEventTypes_Closed(t *testing.T) {
	// The taxonomy is fixed at compile time.
	assert.Len(t, model.AllEventTypes, 19)

	seen := make(map[model.EventType]bool)
	for _, k := range model.AllEventTypes {
		assert.False(t, seen[k], "duplicate event type %s", k)
		seen[k] = true
	}
}

func TestEnvelopeFields(t *testing.T) {
	for _, f := range []string{"timestamp", "sequence_number", "event_type", "session_id", "status"} {
		assert.True(t, model.EnvelopeFields[f], "expected %s to be reserved", f)
	}
	assert.False(t, model.EnvelopeFields["content"])
}
