package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chromechat/internal/core"
	"github.com/vovakirdan/chromechat/internal/proto"
	"github.com/vovakirdan/chromechat/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	readLimit int64
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. A non-positive readLimit
// removes the cap on inbound frame size.
func NewWSHandler(hub *core.Hub, readLimit int64, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, readLimit: readLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	id := utils.NewID()
	w.Header().Set(proto.HeaderConnectionID, id)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	} else {
		conn.SetReadLimit(-1)
	}

	client := core.NewClient(id)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	h.log.Info().Str("client_id", id).Str("remote", r.RemoteAddr).Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) || errors.Is(err, core.ErrClientClosed) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", id).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("client_id", id).Msg("client disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.log.Debug().Str("client_id", client.ID).Msg("ignoring binary frame")
			continue
		}

		var inbound proto.Envelope
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ignoring malformed frame")
			continue
		}

		cmd := inboundToCommand(inbound)
		if cmd == nil {
			h.log.Debug().Str("client_id", client.ID).Str("event", inbound.Event).Msg("ignoring unknown event")
			continue
		}

		select {
		case client.Commands <- *cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		event, err := client.Next(ctx)
		if err != nil {
			return err
		}
		out, err := outboundFromEvent(event)
		if err != nil {
			h.log.Error().Err(err).Str("client_id", client.ID).Msg("map ws event")
			continue
		}
		if err := wsjson.Write(ctx, conn, out); err != nil {
			h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
			return err
		}
	}
}
