package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sheetwatch/internal/analysis"
)

// LoadSnapshot reads the aggregate analytics snapshot. A store that has
// never been written returns an empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (analysis.Snapshot, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE id = 1`).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Snapshot{}, nil
	}
	if err != nil {
		return analysis.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap analysis.Snapshot
	if err := json.Unmarshal([]byte(document), &snap); err != nil {
		return analysis.Snapshot{}, fmt.Errorf("failed to decode snapshot document: %w", err)
	}
	return snap, nil
}

// SaveSnapshot replaces the aggregate snapshot document. The upsert is one
// statement so each read-merge-write applies atomically.
func (s *Store) SaveSnapshot(ctx context.Context, snap analysis.Snapshot) error {
	document, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, document) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET document = excluded.document`,
		string(document))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
