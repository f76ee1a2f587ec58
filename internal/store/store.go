package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed document store holding tracked profiles and the
// aggregate analytics snapshot.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	spreadsheet_id  TEXT NOT NULL,
	sheet_range     TEXT NOT NULL,
	date_column     INTEGER NOT NULL,
	filter_groups   TEXT,
	analysis_column INTEGER,
	extra_column    INTEGER,
	last_run        TEXT
);

CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	document TEXT NOT NULL
);
`

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Opened profile store")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
