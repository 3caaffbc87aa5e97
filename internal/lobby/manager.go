// internal/lobby/manager.go
package lobby

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/models"
	"github.com/devdussey/wordhex/internal/protocol"
)

// Rejections returned by lobby operations. Synchronous, caller-only.
var (
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrAlreadyPlaying   = errors.New("lobby already playing")
	ErrNotHost          = errors.New("only the host may do that")
	ErrCannotEvictSelf  = errors.New("host cannot evict themselves; leave instead")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrNotAllReady      = errors.New("all players must be ready to start")
)

// MatchStarted is the payload broadcast on the lobby channel when a match
// begins; it carries both final lobby state and the opening match snapshot.
type MatchStarted struct {
	Lobby Lobby         `json:"lobby"`
	Match game.Snapshot `json:"match"`
}

// deletedPayload rides lobby:deleted broadcasts.
type deletedPayload struct {
	LobbyID uuid.UUID `json:"lobbyId"`
}

// Manager owns every live lobby on this server. A single mutex serializes
// all lobby mutations, which trivially satisfies the one-writer-per-lobby
// discipline; lobby operations are cheap membership edits.
//
// Every mutating operation broadcasts the post-mutation lobby on its
// channel before returning, so no caller can observe a state its own
// broadcast has not also been queued for.
type Manager struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
	codes   map[string]uuid.UUID

	serverID   string
	maxPlayers int
	matchCfg   game.Config

	log *logrus.Logger

	// PublishFn fans an envelope out to a channel's subscribers. Injected
	// by the wiring layer; tests capture it directly.
	PublishFn func(env protocol.Envelope)

	// OnMatchCreated wires a freshly constructed match (broadcast hook,
	// persistence hook, store registration) before match:started goes out.
	OnMatchCreated func(m *game.Match)

	now func() time.Time
}

// NewManager builds a Manager. matchCfg seeds every match the manager
// starts (grid size, round cap, dictionary); a per-match rng is drawn at
// start time unless the config carries one.
func NewManager(serverID string, maxPlayers int, matchCfg game.Config, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if maxPlayers <= 0 || maxPlayers > 8 {
		maxPlayers = 8
	}
	return &Manager{
		lobbies:    make(map[uuid.UUID]*Lobby),
		codes:      make(map[string]uuid.UUID),
		serverID:   serverID,
		maxPlayers: maxPlayers,
		matchCfg:   matchCfg,
		log:        log,
		now:        time.Now,
	}
}

// Create opens a new lobby hosted by hostID. The host joins immediately,
// not ready.
func (mgr *Manager) Create(hostID uuid.UUID, username string, visibility Visibility) (Lobby, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	code, err := mgr.generateCodeLocked()
	if err != nil {
		return Lobby{}, err
	}
	if visibility != VisibilityPrivate {
		visibility = VisibilityPublic
	}

	l := &Lobby{
		ID:         uuid.New(),
		Code:       code,
		ServerID:   mgr.serverID,
		HostID:     hostID,
		Visibility: visibility,
		Status:     StatusWaiting,
		MaxPlayers: mgr.maxPlayers,
		Players: []Player{{
			UserID:   hostID,
			Username: username,
			IsHost:   true,
			JoinedAt: mgr.now(),
		}},
	}
	mgr.lobbies[l.ID] = l
	mgr.codes[code] = l.ID

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, nil
}

// Join adds a user to the lobby named by a 4-digit code or a lobby id.
// Joining a lobby the user is already in returns the current state.
func (mgr *Manager) Join(codeOrID string, userID uuid.UUID, username string) (Lobby, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lookupLocked(codeOrID)
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.Status != StatusWaiting {
		return Lobby{}, ErrAlreadyPlaying
	}
	if l.playerIndex(userID) >= 0 {
		return l.clone(), nil
	}
	if len(l.Players) >= l.MaxPlayers {
		return Lobby{}, ErrLobbyFull
	}

	l.Players = append(l.Players, Player{
		UserID:   userID,
		Username: username,
		JoinedAt: mgr.now(),
	})

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, nil
}

// SetReady toggles a member's readiness. A userID not present is a no-op.
func (mgr *Manager) SetReady(lobbyID, userID uuid.UUID, ready bool) (Lobby, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.Status != StatusWaiting {
		return Lobby{}, ErrAlreadyPlaying
	}
	idx := l.playerIndex(userID)
	if idx == -1 {
		return l.clone(), nil
	}
	if l.Players[idx].Ready == ready {
		return l.clone(), nil
	}
	l.Players[idx].Ready = ready

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, nil
}

// Leave removes a user. If the host leaves and players remain, the host
// role passes to the earliest-joined remaining player. An emptied lobby is
// deleted; the second return value reports that.
func (mgr *Manager) Leave(lobbyID, userID uuid.UUID) (Lobby, bool, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, false, ErrLobbyNotFound
	}
	idx := l.playerIndex(userID)
	if idx == -1 {
		return l.clone(), false, nil
	}

	wasHost := l.Players[idx].IsHost
	l.Players = append(l.Players[:idx], l.Players[idx+1:]...)

	if len(l.Players) == 0 {
		mgr.deleteLobbyLocked(l)
		return Lobby{}, true, nil
	}

	if wasHost {
		mgr.reassignHostLocked(l)
	}

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, false, nil
}

// RemovePlayer evicts targetUserID on behalf of requestedBy. Only the
// current host may evict, and never themselves.
func (mgr *Manager) RemovePlayer(lobbyID, targetUserID, requestedBy uuid.UUID) (Lobby, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.HostID != requestedBy {
		return Lobby{}, ErrNotHost
	}
	if targetUserID == requestedBy {
		return Lobby{}, ErrCannotEvictSelf
	}
	idx := l.playerIndex(targetUserID)
	if idx == -1 {
		return l.clone(), nil
	}

	l.Players = append(l.Players[:idx], l.Players[idx+1:]...)

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, nil
}

// Start transitions the lobby to playing and constructs its match. It is
// rejected unless at least two players joined and everyone is ready. Turn
// order equals join order.
func (mgr *Manager) Start(lobbyID uuid.UUID) (Lobby, *game.Match, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, nil, ErrLobbyNotFound
	}
	if l.Status != StatusWaiting {
		return Lobby{}, nil, ErrAlreadyPlaying
	}
	if len(l.Players) < 2 {
		return Lobby{}, nil, ErrNotEnoughPlayers
	}
	for _, p := range l.Players {
		if !p.Ready {
			return Lobby{}, nil, ErrNotAllReady
		}
	}

	players := make([]*models.MatchPlayer, len(l.Players))
	for i, p := range l.Players {
		players[i] = &models.MatchPlayer{UserID: p.UserID, Username: p.Username}
	}

	cfg := mgr.matchCfg
	if cfg.Rng == nil {
		cfg.Rng = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	}
	m := game.NewMatch(l.ID, players, cfg)
	if mgr.OnMatchCreated != nil {
		mgr.OnMatchCreated(m)
	}

	// When the match completes, the lobby reaches its terminal state before
	// any externally wired completion work runs.
	lobbyID = l.ID
	inner := m.OnComplete
	m.OnComplete = func(snap game.Snapshot) {
		if _, err := mgr.Finish(lobbyID); err != nil {
			mgr.log.WithError(err).WithField("lobby", lobbyID).Warn("completed match has no lobby to finish")
		}
		if inner != nil {
			inner(snap)
		}
	}

	l.Status = StatusPlaying
	matchID := m.ID
	l.MatchID = &matchID

	snap := l.clone()
	mgr.publishLocked(protocol.LobbyChannel(l.ID), protocol.TypeMatchStarted, MatchStarted{
		Lobby: snap,
		Match: m.Snapshot(),
	})
	mgr.broadcastListingLocked()

	return snap, m, nil
}

// Finish marks a lobby's match as over. Called from the match completion
// path; the finished lobby broadcasts its terminal state and stays out of
// the public listing.
func (mgr *Manager) Finish(lobbyID uuid.UUID) (Lobby, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.Status == StatusFinished {
		return l.clone(), nil
	}
	l.Status = StatusFinished

	snap := l.clone()
	mgr.broadcastLobbyLocked(snap)
	return snap, nil
}

// Get returns a lobby snapshot by id.
func (mgr *Manager) Get(lobbyID uuid.UUID) (Lobby, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	l, ok := mgr.lobbies[lobbyID]
	if !ok {
		return Lobby{}, false
	}
	return l.clone(), true
}

// ListPublic returns the joinable public lobbies on this server.
func (mgr *Manager) ListPublic() []Lobby {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.listPublicLocked()
}

func (mgr *Manager) listPublicLocked() []Lobby {
	out := []Lobby{}
	for _, l := range mgr.lobbies {
		if l.Visibility == VisibilityPublic && l.Status == StatusWaiting {
			out = append(out, l.clone())
		}
	}
	return out
}

// lookupLocked resolves a join target that may be a lobby uuid or a code.
func (mgr *Manager) lookupLocked(codeOrID string) (*Lobby, bool) {
	if id, err := uuid.Parse(codeOrID); err == nil {
		l, ok := mgr.lobbies[id]
		return l, ok
	}
	id, ok := mgr.codes[codeOrID]
	if !ok {
		return nil, false
	}
	l, ok := mgr.lobbies[id]
	return l, ok
}

// reassignHostLocked hands the host role to the earliest-joined remaining
// player. Join order breaks JoinedAt ties, so the outcome is deterministic.
func (mgr *Manager) reassignHostLocked(l *Lobby) {
	earliest := 0
	for i := 1; i < len(l.Players); i++ {
		if l.Players[i].JoinedAt.Before(l.Players[earliest].JoinedAt) {
			earliest = i
		}
	}
	l.Players[earliest].IsHost = true
	l.HostID = l.Players[earliest].UserID
}

func (mgr *Manager) deleteLobbyLocked(l *Lobby) {
	delete(mgr.lobbies, l.ID)
	delete(mgr.codes, l.Code)
	mgr.publishLocked(protocol.LobbyChannel(l.ID), protocol.TypeLobbyDeleted, deletedPayload{LobbyID: l.ID})
	mgr.broadcastListingLocked()
}

// generateCodeLocked draws a 4-digit human-shareable code, collision-checked
// against live lobbies.
func (mgr *Manager) generateCodeLocked() (string, error) {
	const maxAttempts = 100
	for i := 0; i < maxAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", fmt.Errorf("generate lobby code: %w", err)
		}
		code := fmt.Sprintf("%04d", n.Int64())
		if _, taken := mgr.codes[code]; !taken {
			return code, nil
		}
	}
	return "", errors.New("no free lobby codes")
}

func (mgr *Manager) broadcastLobbyLocked(snap Lobby) {
	mgr.publishLocked(protocol.LobbyChannel(snap.ID), protocol.TypeLobbyUpdate, snap)
	mgr.broadcastListingLocked()
}

func (mgr *Manager) broadcastListingLocked() {
	mgr.publishLocked(protocol.ServerLobbiesChannel(mgr.serverID), protocol.TypeLobbyUpdate, mgr.listPublicLocked())
}

func (mgr *Manager) publishLocked(channel string, typ protocol.Type, payload any) {
	if mgr.PublishFn == nil {
		return
	}
	env, err := protocol.NewEnvelope(channel, typ, payload)
	if err != nil {
		mgr.log.WithError(err).WithField("channel", channel).Error("failed to build lobby envelope")
		return
	}
	mgr.PublishFn(env)
}
