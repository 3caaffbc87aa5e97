// internal/models/player.go
package models

import "github.com/google/uuid"

// MatchPlayer is one participant's ledger within a match.
// RoundsPlayed never decreases; Score only increases via validated words.
type MatchPlayer struct {
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	Score        int       `json:"score"`
	RoundsPlayed int       `json:"roundsPlayed"`
	WordsFound   []string  `json:"wordsFound"`
}
