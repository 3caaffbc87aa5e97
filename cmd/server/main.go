// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/auth"
	"github.com/devdussey/wordhex/internal/cache"
	"github.com/devdussey/wordhex/internal/config"
	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/handlers"
	"github.com/devdussey/wordhex/internal/lobby"
	"github.com/devdussey/wordhex/internal/middleware"
	"github.com/devdussey/wordhex/internal/transport"
	"github.com/devdussey/wordhex/internal/words"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.FromEnv()

	dict, err := words.LoadFile(cfg.DictionaryPath)
	if err != nil {
		log.Fatalf("failed to load dictionary %s: %v", cfg.DictionaryPath, err)
	}
	logger.Infof("Loaded dictionary with %d words", dict.Len())

	// Persistence is optional at runtime: without Redis, completed matches
	// are simply not archived.
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("redis unavailable; match history disabled")
	}

	hub := transport.NewHub(logger)
	matches := game.NewStore()
	lobbies := lobby.NewManager(cfg.ServerID, cfg.MaxPlayers, game.Config{
		Rows:            cfg.GridRows,
		Cols:            cfg.GridCols,
		RoundsPerPlayer: cfg.RoundsPerPlayer,
		Dict:            dict,
	}, logger)

	api := handlers.NewAPI(logger, hub, lobbies, matches)

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(api.Routes())); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
