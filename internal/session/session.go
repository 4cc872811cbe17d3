// Package session is the client side of the relay: it keeps a local replica
// of the chat history in sync with the server's events and sends new
// messages without waiting for any acknowledgement.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/chromechat/internal/proto"
)

// ErrNoConnectionID is returned when the server did not announce an identifier.
var ErrNoConnectionID = errors.New("server did not assign a connection id")

// Clock is the source of message timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options tune Dial. The zero value is usable.
type Options struct {
	Clock      Clock
	Logger     *zerolog.Logger
	HTTPClient *stdhttp.Client
	// ReadLimit caps inbound frame size. Zero or negative means unlimited,
	// since the history replay arrives as one frame of unbounded size.
	ReadLimit int64
}

// Session is one live connection to the relay and its local view of history.
type Session struct {
	conn  *websocket.Conn
	id    string
	clock Clock
	log   *zerolog.Logger

	mu       sync.RWMutex
	messages []proto.Message
	onChange func([]proto.Message)
}

// Dial connects to the relay at url. The connection identifier comes from
// the upgrade response and changes on every new connection.
func Dial(ctx context.Context, url string, opts Options) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: opts.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	id := resp.Header.Get(proto.HeaderConnectionID)
	if id == "" {
		conn.Close(websocket.StatusPolicyViolation, "missing connection id")
		return nil, ErrNoConnectionID
	}

	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	} else {
		conn.SetReadLimit(-1)
	}

	return &Session{
		conn:  conn,
		id:    id,
		clock: opts.Clock,
		log:   opts.Logger,
	}, nil
}

// ID returns the identifier the server assigned to this connection.
func (s *Session) ID() string {
	return s.id
}

// OnChange registers fn to be called with the full local list after every
// change. fn runs on the Run goroutine.
func (s *Session) OnChange(fn func([]proto.Message)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Messages returns a copy of the local history.
func (s *Session) Messages() []proto.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]proto.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// IsMine reports whether m was sent from this connection. Records sent
// before a reconnect carry the old identifier and are not mine.
func (s *Session) IsMine(m proto.Message) bool {
	return m.Sender == s.id
}

// Submit sends text as a new message. Blank text is ignored. The message is
// not added locally; it shows up when the server broadcasts it back.
func (s *Session) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	data, err := json.Marshal(proto.NewMessage(text, s.id, s.clock.Now()))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := wsjson.Write(ctx, s.conn, proto.Envelope{Event: proto.EventSendMessage, Data: data}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Run reads server events until the connection ends or ctx is cancelled.
// A normal closure returns nil.
func (s *Session) Run(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}

		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.log.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		s.handle(env)
	}
}

// Close ends the connection.
func (s *Session) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Session) handle(env proto.Envelope) {
	switch env.Event {
	case proto.EventLoadMessages:
		var raw []json.RawMessage
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			s.log.Debug().Err(err).Msg("ignoring malformed history")
			return
		}
		s.replace(lo.Map(raw, func(r json.RawMessage, _ int) proto.Message {
			return s.decode(r)
		}))
	case proto.EventReceiveMessage:
		s.appendMessage(s.decode(env.Data))
	default:
		s.log.Debug().Str("event", env.Event).Msg("ignoring unknown event")
	}
}

// decode keeps whatever fields parse so corrupted records stay visible.
func (s *Session) decode(raw json.RawMessage) proto.Message {
	m, err := proto.DecodeMessage(raw)
	if err != nil {
		s.log.Debug().Err(err).RawJSON("record", raw).Msg("malformed record")
	}
	return m
}

func (s *Session) replace(msgs []proto.Message) {
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
	s.notify()
}

func (s *Session) appendMessage(m proto.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Messages())
	}
}
