package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Lifecycle event types. Payloads carry ids, timestamps and counts only.
const (
	NoteCreated      = "NOTE_CREATED"
	NoteUpdated      = "NOTE_UPDATED"
	NoteDeleted      = "NOTE_DELETED"
	NoteShared       = "NOTE_SHARED"
	NoteShareRevoked = "NOTE_SHARE_REVOKED"
	NotesPurged      = "NOTES_PURGED"
	UserDeleted      = "USER_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// envelope is the wire form on both the in-process bus and NATS.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       e.EventType(),
		OccurredAt: e.Timestamp(),
		Data:       e.Payload(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decoding event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("decoding event: missing type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// Subject is the NATS subject an event is published on.
func Subject(e Event) string {
	return "noteguard.events." + e.EventType()
}
