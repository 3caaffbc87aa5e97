// internal/game/store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// Store tracks live matches in memory.
type Store struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewStore() *Store {
	return &Store{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *Store) Add(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *Store) Get(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	return m, ok
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
}

// GetByLobbyID returns the match created for a given lobby, or nil if none
// is live. Lobby evictions use this to re-apply removals to the match.
func (s *Store) GetByLobbyID(lobbyID uuid.UUID) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.LobbyID == lobbyID {
			return m
		}
	}
	return nil
}
