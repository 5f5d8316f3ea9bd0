package ws

import (
	"encoding/json"
	"fmt"
)

// Wire event names. These are the interoperability contract with connected
// peers and must not change.
const (
	// server -> client
	EventAuthenticated = "authenticated"
	EventJoinedRoom    = "joinedRoom"
	EventLeftRoom      = "leftRoom"

	// client -> server
	EventJoinRoom  = "joinRoom"
	EventLeaveRoom = "leaveRoom"

	// bi-directional
	EventNewMessage = "newMessage"
)

// Envelope is the one-JSON-object-per-websocket-message framing: an event
// name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type eventKind int

const (
	kindNewMessage eventKind = iota
	kindJoinRoom
	kindLeaveRoom
)

type newMessageIn struct {
	ConversationID int    `json:"conversationId"`
	Text           string `json:"text"`
}

type roomIn struct {
	ConversationID int `json:"conversationId"`
}

type roomOut struct {
	ConversationID int `json:"conversationId"`
}

type newMessageOut struct {
	ConversationID int    `json:"conversationId"`
	UserID         int    `json:"userId"`
	Text           string `json:"text"`
}

// inboundEvent is the closed set of client-to-server events. Exactly one
// payload field is populated, selected by kind.
type inboundEvent struct {
	kind       eventKind
	newMessage newMessageIn
	room       roomIn
}

// parseInbound validates the raw frame into a typed event. Unknown event
// names and structurally invalid payloads are rejected before any business
// logic runs.
func parseInbound(raw []byte) (*inboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Event {
	case EventNewMessage:
		var p newMessageIn
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if p.ConversationID == 0 || p.Text == "" {
			return nil, fmt.Errorf("%s payload is missing required fields", env.Event)
		}
		return &inboundEvent{kind: kindNewMessage, newMessage: p}, nil

	case EventJoinRoom, EventLeaveRoom:
		var p roomIn
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if p.ConversationID == 0 {
			return nil, fmt.Errorf("%s payload is missing conversationId", env.Event)
		}
		kind := kindJoinRoom
		if env.Event == EventLeaveRoom {
			kind = kindLeaveRoom
		}
		return &inboundEvent{kind: kind, room: p}, nil

	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

func marshalEvent(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
