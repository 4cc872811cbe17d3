package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/chromechat/internal/store"
)

func mustEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		ev, err := c.Next(ctx)
		if err != nil {
			t.Fatalf("expected event kind %v not received: %v", kind, err)
		}
		if ev.Kind == kind {
			return ev
		}
	}
}

func send(c *Client, raw string) {
	c.Commands <- Command{Kind: CommandSendMessage, Record: store.Record(raw)}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	hub := NewHub(nil, nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func recordStrings(recs []store.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, string(r))
	}
	return out
}
