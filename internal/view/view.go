// internal/view/view.go

// Package view holds the client-side picture of authoritative state. The
// single reconciliation rule: every broadcast replaces the relevant part
// of the view wholesale. Nothing is merged, and no field — least of all
// currentPlayerId — is ever carried over from a stale local copy.
package view

import (
	"encoding/json"
	"strings"

	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/lobby"
	"github.com/devdussey/wordhex/internal/protocol"
)

// View is a client's last-received authoritative state. Locally assembled
// UI state (the in-progress word selection) lives outside the View and is
// discarded whenever a match broadcast arrives.
type View struct {
	Lobby   *lobby.Lobby
	Match   *game.Snapshot
	Listing []lobby.Lobby
}

// Apply folds one broadcast into the view and returns the updated copy.
// It is a pure function of its inputs: unknown or malformed envelopes
// leave the view unchanged.
func Apply(v View, env protocol.Envelope) View {
	switch env.Type {
	case protocol.TypeLobbyUpdate:
		if strings.HasPrefix(env.Channel, "server:") {
			var listing []lobby.Lobby
			if err := json.Unmarshal(env.Payload, &listing); err == nil {
				v.Listing = listing
			}
			return v
		}
		var l lobby.Lobby
		if err := json.Unmarshal(env.Payload, &l); err == nil {
			v.Lobby = &l
		}
		return v

	case protocol.TypeLobbyDeleted:
		v.Lobby = nil
		return v

	case protocol.TypeMatchStarted:
		var started lobby.MatchStarted
		if err := json.Unmarshal(env.Payload, &started); err == nil {
			lob := started.Lobby
			match := started.Match
			v.Lobby = &lob
			v.Match = &match
		}
		return v

	case protocol.TypeMatchUpdate:
		var snap game.Snapshot
		if err := json.Unmarshal(env.Payload, &snap); err == nil {
			v.Match = &snap
		}
		return v

	default:
		// player:action and anything else is ephemeral or unknown; the
		// authoritative view never changes for it.
		return v
	}
}
