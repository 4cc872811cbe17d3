package session

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chromechat/internal/config"
	"github.com/vovakirdan/chromechat/internal/core"
	"github.com/vovakirdan/chromechat/internal/log"
	"github.com/vovakirdan/chromechat/internal/proto"
	transporthttp "github.com/vovakirdan/chromechat/internal/transport/http"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testTime = time.Date(2024, 3, 1, 9, 41, 0, 0, time.Local)

func startRelay(t *testing.T) (string, *core.Hub) {
	t.Helper()

	hub := core.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.StaticDir = t.TempDir()
	server := transporthttp.NewServer(hub, &cfg, log.Nop())
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws", hub
}

// connect dials a session and waits for its history replay.
func connect(t *testing.T, url string) *Session {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := Dial(ctx, url, Options{Clock: fixedClock{testTime}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	loaded := make(chan struct{})
	var once sync.Once
	s.OnChange(func([]proto.Message) { once.Do(func() { close(loaded) }) })

	go func() { _ = s.Run(ctx) }()

	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("history not loaded")
	}
	s.OnChange(nil)
	return s
}

func texts(msgs []proto.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func waitForTexts(t *testing.T, s *Session, want []string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := texts(s.Messages())
		return len(got) == len(want) && strings.Join(got, "\x00") == strings.Join(want, "\x00")
	}, 2*time.Second, 10*time.Millisecond, "want %v, have %v", want, texts(s.Messages()))
}

func TestSessionScenarioTwoClients(t *testing.T) {
	url, _ := startRelay(t)
	ctx := context.Background()

	a := connect(t, url)
	require.Empty(t, a.Messages())

	require.NoError(t, a.Submit(ctx, "hi"))
	waitForTexts(t, a, []string{"hi"})

	b := connect(t, url)
	hist := b.Messages()
	require.Equal(t, []proto.Message{{Text: "hi", Sender: a.ID(), Time: "09:41 AM"}}, hist)

	require.NoError(t, b.Submit(ctx, "yo"))
	waitForTexts(t, a, []string{"hi", "yo"})
	waitForTexts(t, b, []string{"hi", "yo"})

	for _, s := range []*Session{a, b} {
		msgs := s.Messages()
		require.Equal(t, a.ID(), msgs[0].Sender)
		require.Equal(t, b.ID(), msgs[1].Sender)
	}
}

func TestSessionSubmitBlankIsNoop(t *testing.T) {
	url, hub := startRelay(t)
	ctx := context.Background()

	s := connect(t, url)
	require.NoError(t, s.Submit(ctx, ""))
	require.NoError(t, s.Submit(ctx, "   \t\n"))
	require.NoError(t, s.Submit(ctx, "real"))

	waitForTexts(t, s, []string{"real"})

	hctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	recs, err := hub.History(hctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestSessionSubmitKeepsTextUntrimmed(t *testing.T) {
	url, _ := startRelay(t)

	s := connect(t, url)
	require.NoError(t, s.Submit(context.Background(), "  padded  "))
	waitForTexts(t, s, []string{"  padded  "})
}

func TestSessionIsMineChangesAfterReconnect(t *testing.T) {
	url, _ := startRelay(t)

	first := connect(t, url)
	require.NoError(t, first.Submit(context.Background(), "mine"))
	waitForTexts(t, first, []string{"mine"})
	require.True(t, first.IsMine(first.Messages()[0]))
	require.NoError(t, first.Close())

	second := connect(t, url)
	require.NotEqual(t, first.ID(), second.ID())

	msgs := second.Messages()
	require.Len(t, msgs, 1)
	require.False(t, second.IsMine(msgs[0]))
}

func TestSessionReplicasConvergeWithStore(t *testing.T) {
	url, hub := startRelay(t)
	ctx := context.Background()

	const clients, perClient = 3, 10
	sessions := make([]*Session, clients)
	for i := range sessions {
		sessions[i] = connect(t, url)
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()
			for j := 0; j < perClient; j++ {
				_ = s.Submit(ctx, string(rune('a'+i))+string(rune('0'+j)))
			}
		}(i, s)
	}
	wg.Wait()

	for _, s := range sessions {
		require.Eventually(t, func() bool {
			return len(s.Messages()) == clients*perClient
		}, 2*time.Second, 10*time.Millisecond)
	}

	hctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	recs, err := hub.History(hctx)
	require.NoError(t, err)

	want := make([]proto.Message, 0, len(recs))
	for _, r := range recs {
		m, err := proto.DecodeMessage(r)
		require.NoError(t, err)
		want = append(want, m)
	}
	for _, s := range sessions {
		require.Equal(t, want, s.Messages())
	}
}

func TestSessionRendersMalformedRecords(t *testing.T) {
	s := &Session{id: "me", log: log.Nop()}

	s.handle(proto.Envelope{Event: proto.EventLoadMessages, Data: []byte(`[{"text":"ok","sender":"me"},"junk",{"text":"half","sender":7}]`)})
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	require.True(t, s.IsMine(msgs[0]))
	require.Equal(t, proto.Message{}, msgs[1])
	require.Equal(t, "half", msgs[2].Text)

	s.handle(proto.Envelope{Event: proto.EventReceiveMessage, Data: []byte(`null`)})
	require.Len(t, s.Messages(), 4)

	s.handle(proto.Envelope{Event: proto.EventLoadMessages, Data: []byte(`[]`)})
	require.Empty(t, s.Messages())
}

func TestSessionLateJoinerLoadsLargeHistory(t *testing.T) {
	url, _ := startRelay(t)

	a := connect(t, url)
	const k = 40
	text := strings.Repeat("m", 1000)
	for i := 0; i < k; i++ {
		require.NoError(t, a.Submit(context.Background(), text))
	}
	require.Eventually(t, func() bool {
		return len(a.Messages()) == k
	}, 2*time.Second, 10*time.Millisecond)

	b := connect(t, url)
	msgs := b.Messages()
	require.Len(t, msgs, k)
	for _, m := range msgs {
		require.Equal(t, text, m.Text)
		require.Equal(t, a.ID(), m.Sender)
	}
}
