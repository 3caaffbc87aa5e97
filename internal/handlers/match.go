// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/devdussey/wordhex/internal/grid"
)

// MatchGetHandler returns the authoritative match snapshot.
func (api *API) MatchGetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(r.PathValue("match_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
		return
	}
	m, ok := api.Matches.Get(matchID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// MatchSubmitHandler scores the caller's tile selection. Acceptance
// broadcasts the new snapshot on the match channel before this handler
// returns it; rejection is reported to the caller only and the turn stays
// with them.
func (api *API) MatchSubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	matchID, err := uuid.Parse(r.PathValue("match_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
		return
	}
	m, ok := api.Matches.Get(matchID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}

	var req struct {
		Path []grid.Coord `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := m.SubmitWord(userID, req.Path)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// MatchShuffleHandler redraws the board's letters for the current player.
// Once per player-turn, zero score cost.
func (api *API) MatchShuffleHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, err := identityFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	matchID, err := uuid.Parse(r.PathValue("match_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
		return
	}
	m, ok := api.Matches.Get(matchID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}

	snap, err := m.ShuffleGrid(userID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
