package core

import "github.com/vovakirdan/chromechat/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage appends a record to history and broadcasts it.
	CommandSendMessage CommandKind = iota
)

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Record store.Record
}
