package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chromechat/internal/store"
)

type inbound struct {
	client *Client
	cmd    Command
}

// Hub owns the message store and the set of connected clients. All state
// changes happen on the goroutine running Run, so appends never race.
type Hub struct {
	store   store.Store
	log     *zerolog.Logger
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	history    chan chan []store.Record
	done       chan struct{}
}

// NewHub creates a hub backed by st. A nil store gets an in-memory one and a
// nil logger disables logging.
func NewHub(st store.Store, logger *zerolog.Logger) *Hub {
	if st == nil {
		st = store.NewMemory()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		store:      st,
		log:        logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		history:    make(chan chan []store.Record),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case in := <-h.inbound:
			h.handleCommand(in)
		case reply := <-h.history:
			reply <- h.store.Snapshot()
		}
	}
}

// RegisterClient adds c to the broadcast set and queues the history for it.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// UnregisterClient removes c and closes its outbox. The store is unaffected.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// History returns the store snapshot as seen by the hub goroutine.
func (h *Hub) History(ctx context.Context) ([]store.Record, error) {
	reply := make(chan []store.Record, 1)
	select {
	case h.history <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case recs := <-reply:
		return recs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if c == nil {
		return
	}
	if _, exists := h.clients[c]; exists {
		return
	}
	// History goes out before the client joins the broadcast set, so it
	// sees every record exactly once.
	c.deliver(&Event{Kind: EventHistory, Records: h.store.Snapshot()})
	h.clients[c] = struct{}{}
	go h.forward(ctx, c)

	h.log.Info().
		Str("client_id", c.ID).
		Int("history", h.store.Len()).
		Int("clients", len(h.clients)).
		Msg("client registered")
}

func (h *Hub) handleUnregister(c *Client) {
	if _, exists := h.clients[c]; !exists {
		return
	}
	delete(h.clients, c)
	c.close()

	h.log.Info().
		Str("client_id", c.ID).
		Int("clients", len(h.clients)).
		Msg("client unregistered")
}

func (h *Hub) handleCommand(in inbound) {
	switch in.cmd.Kind {
	case CommandSendMessage:
		rec := h.store.Append(in.cmd.Record)
		h.broadcast(&Event{Kind: EventMessage, Record: rec})

		h.log.Debug().
			Str("client_id", in.client.ID).
			Int("history", h.store.Len()).
			Int("clients", len(h.clients)).
			Msg("message appended")
	default:
		h.log.Debug().Int("kind", int(in.cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) broadcast(ev *Event) {
	for c := range h.clients {
		c.deliver(ev)
	}
}

// forward moves the client's commands into the hub loop, preserving their order.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			h.drain(ctx, c)
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.inbound <- inbound{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// drain forwards commands the client queued before it was closed.
func (h *Hub) drain(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.inbound <- inbound{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		default:
			return
		}
	}
}
