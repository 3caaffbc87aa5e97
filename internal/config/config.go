// internal/config/config.go
package config

import (
	"os"
	"strconv"
)

// Config carries the tunables the sync core reads at startup. All values
// come from environment variables with defaults; cmd binaries load .env
// via godotenv before calling FromEnv.
type Config struct {
	Port            string
	ServerID        string
	MaxPlayers      int
	RoundsPerPlayer int
	GridRows        int
	GridCols        int
	DictionaryPath  string
}

// FromEnv builds a Config from the environment.
func FromEnv() Config {
	return Config{
		Port:            GetEnv("PORT", "8080"),
		ServerID:        GetEnv("SERVER_ID", "default"),
		MaxPlayers:      GetEnvInt("MAX_PLAYERS", 8),
		RoundsPerPlayer: GetEnvInt("ROUNDS_PER_PLAYER", 3),
		GridRows:        GetEnvInt("GRID_ROWS", 5),
		GridCols:        GetEnvInt("GRID_COLS", 5),
		DictionaryPath:  GetEnv("DICTIONARY_PATH", "words.txt"),
	}
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses an environment variable as an integer, else a default.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
