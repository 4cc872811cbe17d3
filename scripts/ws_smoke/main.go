package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/chromechat/internal/proto"
	"github.com/vovakirdan/chromechat/internal/session"
)

// Smoke test: connect, print the replayed history, send one message, and
// wait for the relay to broadcast it back.
func main() {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if err := run(*addr, *text, *timeout); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run(addr, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := session.Dial(ctx, addr, session.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Connected as %s\n", s.ID())

	// Each change carries the full list, so a full channel keeps the newest.
	changes := make(chan []proto.Message, 16)
	s.OnChange(func(msgs []proto.Message) {
		for {
			select {
			case changes <- msgs:
				return
			default:
			}
			select {
			case <-changes:
			default:
			}
		}
	})
	go func() { _ = s.Run(ctx) }()

	var history []proto.Message
	select {
	case history = <-changes:
	case <-ctx.Done():
		return fmt.Errorf("waiting for history: %w", ctx.Err())
	}
	fmt.Printf("History: %d message(s)\n", len(history))

	if err := s.Submit(ctx, text); err != nil {
		return err
	}

	for {
		select {
		case msgs := <-changes:
			for _, m := range msgs {
				if s.IsMine(m) && m.Text == text {
					fmt.Printf("Echo received: time=%s text=%q\n", m.Time, m.Text)
					return nil
				}
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for echo: %w", ctx.Err())
		}
	}
}
