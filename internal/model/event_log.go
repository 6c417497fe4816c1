package model

// EventLevel classifies audit trail records.
type EventLevel string

const (
	EventStatus  EventLevel = "STATUS"
	EventWarning EventLevel = "WARNING"
	EventError   EventLevel = "ERROR"
)

// EventLog is one record of the append-only audit trail.
type EventLog struct {
	ID      int64      `json:"id"`
	Date    int64      `json:"date"` // epoch ms
	Level   EventLevel `json:"level"`
	Message string     `json:"message"`
}
