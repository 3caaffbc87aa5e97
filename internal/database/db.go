// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the global connection pool, initialized by ConnectDB.
var DB *pgxpool.Pool

// ConnectDB creates the pgx pool from DATABASE_URL. Fatal on failure: the
// historian cannot run without its store.
func ConnectDB() {
	pool, err := pgxpool.New(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to create connection pool: %v\n", err)
		os.Exit(1)
	}
	DB = pool
}
