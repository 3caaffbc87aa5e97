// internal/lobby/lobby.go
package lobby

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether a lobby shows up in the public listing.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Status is the lobby lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is one member of a lobby. Unique per userId within the lobby.
type Player struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Ready    bool      `json:"ready"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Lobby is a pre-match grouping of players with readiness gating. Exactly
// one player is host while the lobby exists. Membership and readiness are
// owned here; once a match exists for it, the lobby is read-only.
type Lobby struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	ServerID   string     `json:"serverId"`
	HostID     uuid.UUID  `json:"hostId"`
	Visibility Visibility `json:"visibility"`
	Status     Status     `json:"status"`
	MaxPlayers int        `json:"maxPlayers"`
	Players    []Player   `json:"players"` // join order; becomes the match turn rotation
	MatchID    *uuid.UUID `json:"matchId,omitempty"`
}

// clone returns a deep copy safe to hand to callers and broadcasts.
func (l *Lobby) clone() Lobby {
	cp := *l
	cp.Players = append([]Player(nil), l.Players...)
	if l.MatchID != nil {
		id := *l.MatchID
		cp.MatchID = &id
	}
	return cp
}

// playerIndex returns the index of userID in the join-ordered list, or -1.
func (l *Lobby) playerIndex(userID uuid.UUID) int {
	for i, p := range l.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}
