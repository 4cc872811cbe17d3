package proto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimeHourMinute(t *testing.T) {
	ts := time.Date(2024, 3, 1, 21, 7, 59, 0, time.Local)
	require.Equal(t, "09:07 PM", FormatTime(ts))

	ts = time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	require.Equal(t, "12:00 AM", FormatTime(ts))
}

func TestEnvelopeWireShape(t *testing.T) {
	data, err := json.Marshal(NewMessage("hi", "abc", time.Date(2024, 3, 1, 9, 41, 0, 0, time.Local)))
	require.NoError(t, err)

	frame, err := json.Marshal(Envelope{Event: EventSendMessage, Data: data})
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"send_message","data":{"text":"hi","sender":"abc","time":"09:41 AM"}}`, string(frame))
}

func TestDecodeMessageKeepsPartialFields(t *testing.T) {
	m, err := DecodeMessage(json.RawMessage(`{"text":"hi","sender":42}`))
	require.Error(t, err)
	require.Equal(t, "hi", m.Text)
	require.Empty(t, m.Sender)

	m, err = DecodeMessage(json.RawMessage(`"plain"`))
	require.Error(t, err)
	require.Equal(t, Message{}, m)
}
