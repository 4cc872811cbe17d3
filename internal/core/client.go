package core

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// Client is a connected peer as seen by the core layer.
type Client struct {
	ID       string
	Commands chan Command

	mu     sync.Mutex
	outbox deque.Deque[*Event]
	wake   chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan Command, 8),
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// deliver queues an event for the client. It never blocks: the outbox is
// unbounded. Events for a closed client are discarded.
func (c *Client) deliver(ev *Event) {
	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return
	default:
	}
	c.outbox.PushBack(ev)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Next blocks until an event is queued, the context ends, or the client is
// closed. Events queued before close are still returned.
func (c *Client) Next(ctx context.Context) (*Event, error) {
	for {
		c.mu.Lock()
		if c.outbox.Len() > 0 {
			ev := c.outbox.PopFront()
			c.mu.Unlock()
			return ev, nil
		}
		c.mu.Unlock()

		select {
		case <-c.wake:
		case <-c.closed:
			c.mu.Lock()
			empty := c.outbox.Len() == 0
			c.mu.Unlock()
			if empty {
				return nil, ErrClientClosed
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Pending reports how many events wait in the outbox.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outbox.Len()
}

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.closed)
		c.mu.Unlock()
	})
}
