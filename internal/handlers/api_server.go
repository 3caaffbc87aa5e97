// internal/handlers/api_server.go
package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/cache"
	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/lobby"
	"github.com/devdussey/wordhex/internal/transport"
)

// API bundles the server's shared state for the HTTP and WS handlers.
// Mutations arrive over HTTP request/response; broadcasts leave over the
// hub. Each mutating handler returns only after the lobby/match layer has
// queued its broadcast, so the actor never observes state ahead of the
// other subscribers.
type API struct {
	Log     *logrus.Logger
	Hub     *transport.Hub
	Lobbies *lobby.Manager
	Matches *game.Store
}

// NewAPI wires the manager's broadcast and match hooks into the hub and
// persistence queue.
func NewAPI(log *logrus.Logger, hub *transport.Hub, lobbies *lobby.Manager, matches *game.Store) *API {
	api := &API{
		Log:     log,
		Hub:     hub,
		Lobbies: lobbies,
		Matches: matches,
	}

	lobbies.PublishFn = hub.Publish
	lobbies.OnMatchCreated = func(m *game.Match) {
		m.PublishFn = hub.Publish
		m.OnComplete = api.finalizeMatch
		matches.Add(m)
	}

	return api
}

// finalizeMatch retires a completed match: the live-store entry is removed
// so lobby evictions can no longer reach it, and the final record is queued
// for the historian.
func (api *API) finalizeMatch(snap game.Snapshot) {
	api.Matches.Delete(snap.ID)
	api.persistCompletedMatch(snap)
}

// persistCompletedMatch hands the finalized match to the persistence
// collaborator, exactly once per match, fire-and-forget: failures are
// logged and never retried.
func (api *API) persistCompletedMatch(snap game.Snapshot) {
	if cache.Rdb == nil {
		api.Log.WithField("match", snap.ID).Warn("redis not connected; completed match not persisted")
		return
	}
	record := cache.MatchRecord{
		MatchID:     snap.ID,
		LobbyID:     snap.LobbyID,
		Players:     snap.Players,
		WordsFound:  snap.WordsFound,
		RoundNumber: snap.RoundNumber,
		CompletedAt: time.Now().Unix(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.PublishMatchResult(ctx, record); err != nil {
			api.Log.WithError(err).WithField("match", snap.ID).Error("failed to publish match result")
		}
	}()
}
