package http

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/chromechat/internal/core"
	"github.com/vovakirdan/chromechat/internal/proto"
)

// inboundToCommand maps a client envelope to a hub command. It returns nil
// for events the relay does not handle.
func inboundToCommand(inbound proto.Envelope) *core.Command {
	switch inbound.Event {
	case proto.EventSendMessage:
		// The payload is stored verbatim, whatever its shape.
		return &core.Command{
			Kind:   core.CommandSendMessage,
			Record: inbound.Data,
		}
	default:
		return nil
	}
}

func outboundFromEvent(event *core.Event) (proto.Envelope, error) {
	switch event.Kind {
	case core.EventHistory:
		data, err := json.Marshal(event.Records)
		if err != nil {
			return proto.Envelope{}, fmt.Errorf("marshal history: %w", err)
		}
		return proto.Envelope{Event: proto.EventLoadMessages, Data: data}, nil
	case core.EventMessage:
		return proto.Envelope{Event: proto.EventReceiveMessage, Data: event.Record}, nil
	default:
		return proto.Envelope{}, fmt.Errorf("unsupported event kind %v", event.Kind)
	}
}
