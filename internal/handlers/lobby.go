// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/lobby"
)

// LobbyCreateHandler opens a new lobby with the caller as host.
func (api *API) LobbyCreateHandler(w http.ResponseWriter, r *http.Request) {
	userID, username, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		Visibility lobby.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := api.Lobbies.Create(userID, username, req.Visibility)
	if err != nil {
		api.Log.WithError(err).Error("failed to create lobby")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create lobby"})
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// LobbyListHandler returns the joinable public lobbies on this server.
func (api *API) LobbyListHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Lobbies.ListPublic())
}

// LobbyGetHandler returns one lobby snapshot by id.
func (api *API) LobbyGetHandler(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := uuid.Parse(r.PathValue("lobby_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lobby id"})
		return
	}
	l, ok := api.Lobbies.Get(lobbyID)
	if !ok {
		writeRejection(w, lobby.ErrLobbyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// LobbyJoinHandler adds the caller to a lobby named by a 4-digit code or a
// lobby id.
func (api *API) LobbyJoinHandler(w http.ResponseWriter, r *http.Request) {
	userID, username, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing lobby code"})
		return
	}

	l, err := api.Lobbies.Join(req.Code, userID, username)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// LobbyReadyHandler sets the caller's readiness.
func (api *API) LobbyReadyHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	lobbyID, err := uuid.Parse(r.PathValue("lobby_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lobby id"})
		return
	}

	var req struct {
		Ready bool `json:"ready"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := api.Lobbies.SetReady(lobbyID, userID, req.Ready)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// LobbyLeaveHandler removes the caller from a lobby. Leaving while the
// lobby's match is live also evicts the caller from the match.
func (api *API) LobbyLeaveHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	lobbyID, err := uuid.Parse(r.PathValue("lobby_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lobby id"})
		return
	}

	l, deleted, err := api.Lobbies.Leave(lobbyID, userID)
	if err != nil {
		writeRejection(w, err)
		return
	}

	api.removeFromLiveMatch(lobbyID, userID)

	if deleted {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// LobbyKickHandler evicts a player on the host's behalf. If the lobby's
// match is live, the eviction is re-applied to the match so the rotation
// shrinks.
func (api *API) LobbyKickHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	lobbyID, err := uuid.Parse(r.PathValue("lobby_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lobby id"})
		return
	}

	var req struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing target user id"})
		return
	}

	l, err := api.Lobbies.RemovePlayer(lobbyID, req.UserID, userID)
	if err != nil {
		writeRejection(w, err)
		return
	}

	api.removeFromLiveMatch(lobbyID, req.UserID)

	writeJSON(w, http.StatusOK, l)
}

// LobbyStartHandler transitions a waiting lobby into a match. Host only.
func (api *API) LobbyStartHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	lobbyID, err := uuid.Parse(r.PathValue("lobby_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lobby id"})
		return
	}

	l, ok := api.Lobbies.Get(lobbyID)
	if !ok {
		writeRejection(w, lobby.ErrLobbyNotFound)
		return
	}
	if l.HostID != userID {
		writeRejection(w, lobby.ErrNotHost)
		return
	}

	l, m, err := api.Lobbies.Start(lobbyID)
	if err != nil {
		writeRejection(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lobby.MatchStarted{Lobby: l, Match: m.Snapshot()})
}

// removeFromLiveMatch re-applies a lobby departure to the lobby's live
// match, if one exists. Any in-flight selection the player had dies with
// their rotation slot.
func (api *API) removeFromLiveMatch(lobbyID, userID uuid.UUID) {
	m := api.Matches.GetByLobbyID(lobbyID)
	if m == nil {
		return
	}
	if _, err := m.RemovePlayer(userID); err != nil &&
		!errors.Is(err, game.ErrMatchOver) && !errors.Is(err, game.ErrPlayerNotInMatch) {
		api.Log.WithError(err).WithField("match", m.ID).Error("failed to evict player from match")
	}
}
