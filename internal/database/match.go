// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devdussey/wordhex/internal/cache"
)

// InsertMatchRecord persists one finalized match: a row in matches plus
// one row per participant in match_players. The word log is stored as
// JSONB on the match row.
func InsertMatchRecord(ctx context.Context, rec cache.MatchRecord) error {
	words, err := json.Marshal(rec.WordsFound)
	if err != nil {
		return fmt.Errorf("marshal word log: %w", err)
	}

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO matches (id, lobby_id, round_number, words_found, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, rec.MatchID, rec.LobbyID, rec.RoundNumber, words, time.Unix(rec.CompletedAt, 0))
	if err != nil {
		return fmt.Errorf("insert match %s: %w", rec.MatchID, err)
	}

	for i, p := range rec.Players {
		_, err = tx.Exec(ctx, `
			INSERT INTO match_players (match_id, user_id, username, seat, score, rounds_played)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (match_id, user_id) DO NOTHING
		`, rec.MatchID, p.UserID, p.Username, i, p.Score, p.RoundsPlayed)
		if err != nil {
			return fmt.Errorf("insert match player %s: %w", p.UserID, err)
		}
	}

	return tx.Commit(ctx)
}
