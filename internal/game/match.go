// internal/game/match.go
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/grid"
	"github.com/devdussey/wordhex/internal/models"
	"github.com/devdussey/wordhex/internal/protocol"
	"github.com/devdussey/wordhex/internal/scoring"
)

// Status is the match lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// GemBonus is the flat score added per gem tile consumed in a scored word.
// Gems are a match-level economy; the scoring engine never sees them.
const GemBonus = 10

// Rejections returned by match operations. Synchronous, non-fatal, and
// reported only to the requester — never broadcast.
var (
	ErrMatchOver        = errors.New("match already completed")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrShuffleUsed      = errors.New("shuffle already used this turn")
	ErrPlayerNotInMatch = errors.New("player not in match")
)

// Config carries the knobs a new match needs.
type Config struct {
	Rows            int
	Cols            int
	RoundsPerPlayer int
	Dict            scoring.Dictionary
	Rng             *rand.Rand
}

// Match is one active game instance: a fixed turn rotation over an owned
// grid and score ledger. Every mutating operation is serialized behind mu,
// so two near-simultaneous submissions can never both win the same turn.
type Match struct {
	ID      uuid.UUID
	LobbyID uuid.UUID

	mu              sync.Mutex
	status          Status
	players         []*models.MatchPlayer // order is the fixed turn rotation
	currentIdx      int
	grid            *grid.Grid
	wordsFound      []models.WordResult
	roundNumber     int
	roundsPerPlayer int
	shuffleUsed     bool
	completedFired  bool

	dict scoring.Dictionary
	rng  *rand.Rand
	log  *logrus.Logger

	// PublishFn broadcasts an envelope on the match channel. Injected by
	// the wiring layer; nil means broadcasts are skipped (tests may leave
	// it unset and use snapshots directly).
	PublishFn func(env protocol.Envelope)

	// OnComplete hands the finalized match to the persistence collaborator.
	// Called exactly once, fire-and-forget: the core never retries.
	OnComplete func(snap Snapshot)
}

// Snapshot is the full authoritative match state broadcast to clients.
// Clients replace their local view with it wholesale; nothing is merged.
type Snapshot struct {
	ID              uuid.UUID             `json:"id"`
	LobbyID         uuid.UUID             `json:"lobbyId"`
	Status          Status                `json:"status"`
	Players         []models.MatchPlayer  `json:"players"`
	CurrentPlayerID *uuid.UUID            `json:"currentPlayerId"`
	Grid            *grid.Grid            `json:"grid"`
	WordsFound      []models.WordResult   `json:"wordsFound"`
	RoundNumber     int                   `json:"roundNumber"`
}

// NewMatch builds a match from the lobby's join-ordered players with a
// freshly generated grid. The first player in the rotation opens.
func NewMatch(lobbyID uuid.UUID, players []*models.MatchPlayer, cfg Config) *Match {
	if cfg.Rows == 0 {
		cfg.Rows = grid.DefaultRows
	}
	if cfg.Cols == 0 {
		cfg.Cols = grid.DefaultCols
	}
	if cfg.RoundsPerPlayer == 0 {
		cfg.RoundsPerPlayer = 3
	}
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Match{
		ID:              uuid.New(),
		LobbyID:         lobbyID,
		status:          StatusInProgress,
		players:         players,
		currentIdx:      0,
		grid:            grid.New(cfg.Rows, cfg.Cols, cfg.Rng),
		roundNumber:     1,
		roundsPerPlayer: cfg.RoundsPerPlayer,
		dict:            cfg.Dict,
		rng:             cfg.Rng,
		log:             logrus.StandardLogger(),
	}
}

// Snapshot returns a deep copy of the current match state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() Snapshot {
	players := make([]models.MatchPlayer, len(m.players))
	for i, p := range m.players {
		cp := *p
		cp.WordsFound = append([]string(nil), p.WordsFound...)
		players[i] = cp
	}
	var current *uuid.UUID
	if m.status == StatusInProgress && m.currentIdx >= 0 && m.currentIdx < len(m.players) {
		id := m.players[m.currentIdx].UserID
		current = &id
	}
	return Snapshot{
		ID:              m.ID,
		LobbyID:         m.LobbyID,
		Status:          m.status,
		Players:         players,
		CurrentPlayerID: current,
		Grid:            m.grid.Clone(),
		WordsFound:      append([]models.WordResult(nil), m.wordsFound...),
		RoundNumber:     m.roundNumber,
	}
}

// SubmitWord scores the selection at path for playerID. Rejections leave
// the match untouched and the turn with the same player, so they may retry
// within their turn. An accepted word mutates the grid and ledger, logs
// the result, and advances the rotation before the snapshot is broadcast.
func (m *Match) SubmitWord(playerID uuid.UUID, path []grid.Coord) (Snapshot, error) {
	snap, err := m.submitWord(playerID, path)
	if err != nil {
		return Snapshot{}, err
	}
	m.fireComplete(snap)
	return snap, nil
}

func (m *Match) submitWord(playerID uuid.UUID, path []grid.Coord) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusCompleted {
		return Snapshot{}, ErrMatchOver
	}
	if !m.isCurrentLocked(playerID) {
		return Snapshot{}, ErrNotYourTurn
	}
	if len(path) < scoring.MinWordLength {
		return Snapshot{}, scoring.ErrTooShort
	}

	tiles, err := m.grid.PathTiles(path)
	if err != nil {
		return Snapshot{}, err
	}

	result, err := scoring.Score(tiles, m.dict)
	if err != nil {
		// Turn does not advance; the player retries within the same turn.
		return Snapshot{}, err
	}

	gems := 0
	for _, t := range tiles {
		if t.IsGem {
			gems++
		}
	}

	actor := m.players[m.currentIdx]
	actor.Score += result.FinalScore + gems*GemBonus
	actor.RoundsPlayed++
	actor.WordsFound = append(actor.WordsFound, result.Word)
	m.wordsFound = append(m.wordsFound, result)
	m.grid.ConsumeTiles(path, m.rng)

	m.advanceTurnLocked()

	snap := m.snapshotLocked()
	m.publishLocked(snap)
	return snap, nil
}

// ShuffleGrid redraws every letter on the board at zero score cost. It is
// turn-gated and limited to one use per player-turn.
func (m *Match) ShuffleGrid(playerID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusCompleted {
		return Snapshot{}, ErrMatchOver
	}
	if !m.isCurrentLocked(playerID) {
		return Snapshot{}, ErrNotYourTurn
	}
	if m.shuffleUsed {
		return Snapshot{}, ErrShuffleUsed
	}

	m.grid.ShuffleLetters(m.rng)
	m.shuffleUsed = true

	snap := m.snapshotLocked()
	m.publishLocked(snap)
	return snap, nil
}

// RemovePlayer evicts a player mid-match, shrinking the turn rotation. If
// the evicted player held the turn it passes to the next eligible player;
// any in-flight selection they had is discarded, never scored. A match
// with fewer than two players left completes immediately.
func (m *Match) RemovePlayer(userID uuid.UUID) (Snapshot, error) {
	snap, err := m.removePlayer(userID)
	if err != nil {
		return Snapshot{}, err
	}
	m.fireComplete(snap)
	return snap, nil
}

func (m *Match) removePlayer(userID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusCompleted {
		return Snapshot{}, ErrMatchOver
	}

	idx := -1
	for i, p := range m.players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Snapshot{}, ErrPlayerNotInMatch
	}

	wasCurrent := idx == m.currentIdx
	m.players = append(m.players[:idx], m.players[idx+1:]...)

	if len(m.players) == 0 {
		// Callers remove the last player via match completion, not eviction.
		m.log.WithFields(logrus.Fields{
			"match": m.ID, "lobby": m.LobbyID,
		}).Error("invariant violation: match left with no players")
		m.completeLocked()
	} else {
		if idx < m.currentIdx {
			m.currentIdx--
		}
		if len(m.players) == 1 {
			m.completeLocked()
		} else if wasCurrent {
			// The rotation slot the evicted player held now points at the
			// next player; settle on the first eligible one from there.
			m.currentIdx = m.currentIdx % len(m.players)
			m.settleOnEligibleLocked(m.currentIdx)
			m.shuffleUsed = false
		}
	}

	snap := m.snapshotLocked()
	m.publishLocked(snap)
	return snap, nil
}

// isCurrentLocked enforces turn ownership: only the player named by the
// current rotation slot may mutate match state.
func (m *Match) isCurrentLocked(playerID uuid.UUID) bool {
	if m.currentIdx < 0 || m.currentIdx >= len(m.players) {
		return false
	}
	return m.players[m.currentIdx].UserID == playerID
}

// advanceTurnLocked moves to the next player in the fixed rotation,
// skipping anyone who already reached the round cap. If nobody is
// eligible, the match completes.
func (m *Match) advanceTurnLocked() {
	if m.status == StatusCompleted {
		return
	}
	n := len(m.players)
	if n == 0 {
		m.log.WithField("match", m.ID).Error("invariant violation: advancing turn with no players")
		m.completeLocked()
		return
	}
	prev := m.currentIdx
	for step := 1; step <= n; step++ {
		next := (prev + step) % n
		if m.players[next].RoundsPlayed < m.roundsPerPlayer {
			if next <= prev {
				m.roundNumber++
			}
			if m.players[next].UserID != m.players[prev].UserID {
				m.shuffleUsed = false
			}
			m.currentIdx = next
			return
		}
	}
	m.completeLocked()
}

// settleOnEligibleLocked picks the first player at or after start who can
// still play; completes the match if none can.
func (m *Match) settleOnEligibleLocked(start int) {
	n := len(m.players)
	for step := 0; step < n; step++ {
		idx := (start + step) % n
		if m.players[idx].RoundsPlayed < m.roundsPerPlayer {
			m.currentIdx = idx
			return
		}
	}
	m.completeLocked()
}

func (m *Match) completeLocked() {
	if m.status == StatusCompleted {
		return
	}
	m.status = StatusCompleted
	m.currentIdx = -1
}

func (m *Match) publishLocked(snap Snapshot) {
	if m.PublishFn == nil {
		return
	}
	env, err := protocol.NewEnvelope(protocol.MatchChannel(m.ID), protocol.TypeMatchUpdate, snap)
	if err != nil {
		m.log.WithError(err).WithField("match", m.ID).Error("failed to build match update envelope")
		return
	}
	m.PublishFn(env)
}

// fireComplete hands the finalized match to the completion hook the first
// time the match reaches completed. It runs without the match lock so the
// hook may read the match or take other entity locks.
func (m *Match) fireComplete(snap Snapshot) {
	if snap.Status != StatusCompleted {
		return
	}
	m.mu.Lock()
	if m.completedFired || m.OnComplete == nil {
		m.mu.Unlock()
		return
	}
	m.completedFired = true
	hook := m.OnComplete
	m.mu.Unlock()
	hook(snap)
}
