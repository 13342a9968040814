// Package sqlite provides a SQLite-backed relay record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	"github.com/burnes-center/fair/pkg/storage/sqldriver"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS relays (
		id           TEXT PRIMARY KEY,
		endpoint     TEXT NOT NULL,
		user_id      TEXT NOT NULL DEFAULT '',
		session_id   TEXT NOT NULL DEFAULT '',
		state        TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		bytes_in     INTEGER NOT NULL DEFAULT 0,
		bytes_out    INTEGER NOT NULL DEFAULT 0,
		chunks       INTEGER NOT NULL DEFAULT 0,
		markers      INTEGER NOT NULL DEFAULT 0,
		malformed    INTEGER NOT NULL DEFAULT 0,
		meta         TEXT,
		started_at   TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS relays_session_id ON relays (session_id)`,
	`CREATE INDEX IF NOT EXISTS relays_started_at ON relays (started_at)`,
}

// Driver implements storage.Driver using SQLite.
type Driver struct {
	*sqldriver.Driver
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every pooled connection to ":memory:" would get its own empty database
	db.SetMaxOpenConns(1)

	drv, err := sqldriver.New(ctx, db, dialect.SQLite, schema)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Driver: drv}, nil
}
