// internal/protocol/protocol.go
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Type tags every envelope on the wire.
type Type string

const (
	// Client -> server.
	TypeIdentify    Type = "identify"
	TypeSubscribe   Type = "subscribe"
	TypeUnsubscribe Type = "unsubscribe"

	// Server -> client broadcasts.
	TypeLobbyUpdate  Type = "lobby:update"
	TypeLobbyDeleted Type = "lobby:deleted"
	TypeMatchStarted Type = "match:started"
	TypeMatchUpdate  Type = "match:update"

	// Ephemeral, relayed in both directions (live-typing indicators).
	TypePlayerAction Type = "player:action"

	// Server -> client, requester only.
	TypeError Type = "error"
)

// Envelope is the JSON frame for every realtime message. Channel names the
// pub/sub topic a broadcast belongs to; it is empty for connection-scoped
// frames like identify.
type Envelope struct {
	Channel string          `json:"channel,omitempty"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an Envelope. Marshal failures indicate
// a programming error in the payload type and surface as an error here
// rather than a partial frame on the wire.
func NewEnvelope(channel string, typ Type, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		raw = data
	}
	return Envelope{Channel: channel, Type: typ, Payload: raw}, nil
}

// Identify binds a connection to a user. The token is issued by the
// identity provider; the server verifies it and trusts the resulting
// (userId, username) pair.
type Identify struct {
	Token string `json:"token"`
}

// Subscribe registers interest in one channel.
type Subscribe struct {
	Channel string `json:"channel"`
}

// Unsubscribe drops interest in one channel.
type Unsubscribe struct {
	Channel string `json:"channel"`
}

// PlayerAction is an ephemeral indicator (tile hover, current selection)
// relayed to a channel's subscribers without touching authoritative state.
type PlayerAction struct {
	UserID   uuid.UUID       `json:"userId"`
	Username string          `json:"username,omitempty"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is sent to a single requester, never broadcast.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Decode maps a client-originated envelope to its typed payload. Every
// inbound type has exactly one variant; unknown types are an error so that
// dispatch stays exhaustive.
func Decode(env Envelope) (any, error) {
	switch env.Type {
	case TypeIdentify:
		var p Identify
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode identify: %w", err)
		}
		return p, nil
	case TypeSubscribe:
		var p Subscribe
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode subscribe: %w", err)
		}
		return p, nil
	case TypeUnsubscribe:
		var p Unsubscribe
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode unsubscribe: %w", err)
		}
		return p, nil
	case TypePlayerAction:
		var p PlayerAction
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode player action: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

// Channel name helpers. Channels are plain strings; these keep the naming
// scheme in one place.

func LobbyChannel(lobbyID uuid.UUID) string {
	return "lobby:" + lobbyID.String()
}

func MatchChannel(matchID uuid.UUID) string {
	return "match:" + matchID.String()
}

func ServerLobbiesChannel(serverID string) string {
	return "server:" + serverID + ":lobbies"
}
