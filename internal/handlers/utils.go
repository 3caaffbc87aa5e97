// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/devdussey/wordhex/internal/auth"
	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/grid"
	"github.com/devdussey/wordhex/internal/lobby"
	"github.com/devdussey/wordhex/internal/scoring"
)

// identityFromRequest extracts and verifies the identify token from the
// auth_token cookie or an Authorization: Bearer header.
func identityFromRequest(r *http.Request) (uuid.UUID, string, error) {
	token := ""
	if c, err := r.Cookie("auth_token"); err == nil {
		token = c.Value
	}
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		return uuid.Nil, "", errors.New("missing auth token")
	}
	return auth.VerifyToken(token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRejection maps an expected rejection to its HTTP status. The body
// carries a stable reason string; nothing is broadcast.
func writeRejection(w http.ResponseWriter, err error) {
	writeJSON(w, rejectStatus(err), map[string]string{"error": err.Error()})
}

func rejectStatus(err error) int {
	switch {
	case errors.Is(err, lobby.ErrLobbyNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrNotHost),
		errors.Is(err, game.ErrNotYourTurn):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrLobbyFull),
		errors.Is(err, lobby.ErrAlreadyPlaying),
		errors.Is(err, lobby.ErrNotEnoughPlayers),
		errors.Is(err, lobby.ErrNotAllReady),
		errors.Is(err, game.ErrMatchOver),
		errors.Is(err, game.ErrShuffleUsed):
		return http.StatusConflict
	case errors.Is(err, scoring.ErrTooShort),
		errors.Is(err, scoring.ErrNotAWord),
		errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, grid.ErrNotAdjacent),
		errors.Is(err, grid.ErrRepeatedTile),
		errors.Is(err, lobby.ErrCannotEvictSelf),
		errors.Is(err, game.ErrPlayerNotInMatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
