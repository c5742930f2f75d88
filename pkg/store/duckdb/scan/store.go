package scan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
)

// Store keeps every collected snapshot. Snapshots are stored in their wire form so that the
// dashboard can serve them without re-encoding.
type Store interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.ResourceSnapshot) error
	LatestSnapshot(ctx context.Context) (*domain.ResourceSnapshot, error)
}

type scanStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &scanStore{
		db: db,
	}, nil
}

func (s *scanStore) SaveSnapshot(ctx context.Context, snapshot *domain.ResourceSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	wire := adapters.MapSnapshotDomainToApi(snapshot)
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO scans (
			id, captured_at, total_instances, idle_instances,
			total_volumes, unattached_volumes, total_databases, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		uuid.NewString(),
		snapshot.CapturedAt.UTC(),
		wire.Summary.TotalEC2Instances,
		wire.Summary.IdleEC2Instances,
		wire.Summary.TotalEBSVolumes,
		wire.Summary.UnattachedEBSVolumes,
		wire.Summary.TotalRDSInstances,
		string(payload),
	}

	if tx := duckdb.GetTransaction(ctx); tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently captured snapshot or duckdb.ErrNotFound.
func (s *scanStore) LatestSnapshot(ctx context.Context) (*domain.ResourceSnapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM scans ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, duckdb.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	var wire api.Snapshot
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return adapters.MapSnapshotApiToDomain(wire), nil
}
