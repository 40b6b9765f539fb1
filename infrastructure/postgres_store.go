package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rifa/database"
	"rifa/domain/entities"

	"github.com/jackc/pgx/v5"
)

// snapshotRowID is the key of the single snapshot row; the ledger is
// single-replica state, so there is exactly one.
const snapshotRowID = 1

// PostgresSnapshotStore persists the raffle snapshot as one JSONB row.
type PostgresSnapshotStore struct {
	db *database.DB
}

// NewPostgresSnapshotStore creates a snapshot store backed by the given pool.
func NewPostgresSnapshotStore(db *database.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

// Load reads the stored snapshot. Returns (nil, nil) when none exists yet.
func (s *PostgresSnapshotStore) Load(ctx context.Context) (*entities.Snapshot, error) {
	query := `SELECT data FROM raffle_snapshots WHERE id = $1`

	var data []byte
	err := s.db.QueryRow(ctx, query, snapshotRowID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot entities.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Save writes the snapshot, replacing any previous one.
func (s *PostgresSnapshotStore) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO raffle_snapshots (id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, snapshotRowID, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
