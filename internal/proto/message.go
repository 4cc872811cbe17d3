package proto

import (
	"encoding/json"
	"time"
)

const (
	// EventLoadMessages carries the full history to a newly connected client.
	EventLoadMessages = "load_messages"
	// EventSendMessage asks the server to append and broadcast a record.
	EventSendMessage = "send_message"
	// EventReceiveMessage carries one appended record to every client.
	EventReceiveMessage = "receive_message"

	// HeaderConnectionID is set on the upgrade response and holds the
	// identifier the server assigned to the connection.
	HeaderConnectionID = "X-Connection-Id"

	// TimeLayout formats message timestamps with hour/minute granularity.
	TimeLayout = "03:04 PM"
)

// Envelope is one WebSocket text frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is the chat record clients build and render.
type Message struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Time   string `json:"time"`
}

// NewMessage builds a record stamped with the sender's local clock.
func NewMessage(text, sender string, now time.Time) Message {
	return Message{
		Text:   text,
		Sender: sender,
		Time:   FormatTime(now),
	}
}

// FormatTime renders t in local time as hours and minutes.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// DecodeMessage fills a Message from raw best-effort. Fields that decode
// before an error are kept, so malformed records still render.
func DecodeMessage(raw json.RawMessage) (Message, error) {
	var m Message
	err := json.Unmarshal(raw, &m)
	return m, err
}
