package core

import "github.com/vovakirdan/chromechat/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers the full history to a client right after it registers.
	EventHistory EventKind = iota
	// EventMessage notifies every client about a newly appended record.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventHistory:
		return "history"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Record  store.Record   // EventMessage
	Records []store.Record // EventHistory
}
