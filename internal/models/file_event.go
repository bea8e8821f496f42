package models

import "time"

// EventType doubles as the NATS subject the event is published on.
type EventType string

const (
	EventFileRegistered EventType = "files.registered"
	EventFileUpdated    EventType = "files.updated"
	EventFileDeleted    EventType = "files.deleted"
)

// FileEvent is emitted after a catalog mutation succeeded.
type FileEvent struct {
	Type       EventType  `json:"type"`
	Record     FileRecord `json:"record"`
	OccurredAt time.Time  `json:"occurredAt"`
}

func NewFileEvent(t EventType, record FileRecord) FileEvent {
	return FileEvent{Type: t, Record: record, OccurredAt: time.Now().UTC()}
}
