// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/devdussey/wordhex/internal/config"
	"github.com/devdussey/wordhex/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for finished matches.
var DefaultQueueName = "wordhex_matches"

// MatchRecord holds the finalized match handed to the persistence
// collaborator: final ledger, word log, and timestamps. The core publishes
// it exactly once per completed match, fire-and-forget.
type MatchRecord struct {
	MatchID     uuid.UUID            `json:"match_id"`
	LobbyID     uuid.UUID            `json:"lobby_id"`
	Players     []models.MatchPlayer `json:"players"`
	WordsFound  []models.WordResult  `json:"words_found"`
	RoundNumber int                  `json:"round_number"`
	CompletedAt int64                `json:"completed_at"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := config.GetEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := config.GetEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishMatchResult serializes the record to JSON and pushes it onto the
// Redis queue for the historian. The caller does not retry on failure.
func PublishMatchResult(ctx context.Context, record MatchRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchRecord: %w", err)
	}

	queueName := config.GetEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}
