package connection

import (
	"encoding/json"
	"fmt"

	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/wire"
)

// PositionChannel is the subscription channel carrying per-user position state.
const PositionChannel = "webData2"

// subscribeRequest is the wire format for a subscribe command.
type subscribeRequest struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// SubscribeMessage builds the subscribe frame for one address.
func SubscribeMessage(address string) ([]byte, error) {
	return json.Marshal(subscribeRequest{
		Method: "subscribe",
		Subscription: subscription{
			Type: PositionChannel,
			User: address,
		},
	})
}

// EventKind discriminates decoded inbound messages.
type EventKind int

const (
	// KindPosition is a position-state update on the position channel.
	KindPosition EventKind = iota
	// KindControl is protocol chatter (subscription acks, pongs).
	KindControl
	// KindUnknown is a well-formed message on a channel we do not handle.
	KindUnknown
)

// Event is the tagged decode result for one inbound message.
type Event struct {
	Kind     EventKind
	Channel  string
	Snapshot *model.PositionSnapshot // Set only for KindPosition
}

type channelEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type webDataPayload struct {
	User               string                  `json:"user"`
	ClearinghouseState wire.ClearinghouseState `json:"clearinghouseState"`
}

// DecodeEvent decodes one inbound message into a tagged Event. A decode
// error marks the message malformed: callers log and drop it; it must never
// affect connection state.
func DecodeEvent(msg InboundMessage) (Event, error) {
	var env channelEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Channel {
	case PositionChannel:
		snap, err := decodeWebData(env.Data, msg)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindPosition, Channel: env.Channel, Snapshot: snap}, nil

	case "subscriptionResponse", "pong":
		return Event{Kind: KindControl, Channel: env.Channel}, nil

	default:
		return Event{Kind: KindUnknown, Channel: env.Channel}, nil
	}
}

func decodeWebData(data []byte, msg InboundMessage) (*model.PositionSnapshot, error) {
	var payload webDataPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", PositionChannel, err)
	}
	if payload.User == "" {
		return nil, fmt.Errorf("decode %s payload: missing user", PositionChannel)
	}

	return wire.Snapshot(payload.User, payload.ClearinghouseState, msg.ReceivedAt, "ws", msg.ClientID), nil
}
