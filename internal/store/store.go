package store

import "encoding/json"

// Record is a chat message exactly as the sending client encoded it.
// The relay never decodes it, so a malformed payload is kept as-is.
type Record = json.RawMessage

// Store is the process-wide chat history.
type Store interface {
	// Append adds a record to the end of the history and returns the stored copy.
	Append(rec Record) Record
	// Snapshot returns the full ordered history as of the call.
	Snapshot() []Record
	// Len reports how many records have been appended.
	Len() int
}

// nullRecord stands in for a send without payload.
var nullRecord = Record("null")

// Memory keeps the history in process memory. It is lost on restart.
// Memory is not safe for concurrent use; the hub goroutine owns it.
type Memory struct {
	records []Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores a private copy of rec so later changes by the caller
// cannot alter history.
func (m *Memory) Append(rec Record) Record {
	if len(rec) == 0 {
		m.records = append(m.records, nullRecord)
		return nullRecord
	}
	cp := make(Record, len(rec))
	copy(cp, rec)
	m.records = append(m.records, cp)
	return cp
}

// Snapshot returns a fresh slice; it is never nil so it encodes as [].
// Records are shared with the store and must not be modified.
func (m *Memory) Snapshot() []Record {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Len reports how many records have been appended.
func (m *Memory) Len() int {
	return len(m.records)
}
