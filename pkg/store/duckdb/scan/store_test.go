package scan

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	return db
}

func setupFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: store,
	}
}

func snapshotAt(ts time.Time, instanceID string) *domain.ResourceSnapshot {
	return &domain.ResourceSnapshot{
		CapturedAt: ts,
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: instanceID, InstanceClass: "t2.micro", State: domain.InstanceStateRunning, CPUAverage7d: 1.5, Tags: map[string]string{}},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-001", SizeGB: 100, State: domain.VolumeStateAvailable, VolumeClass: "gp2", CreatedAt: ts.Add(-time.Hour)},
				},
				Databases: []domain.ManagedDbInstance{},
			},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupFixture(t)
		assert.NotNil(t, f.store)
	})

	t.Run("nil db", func(t *testing.T) {
		store, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestStore_LatestSnapshot(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		_, err := f.store.LatestSnapshot(ctx)
		assert.ErrorIs(t, err, duckdb.ErrNotFound)
	})

	t.Run("returns the newest snapshot", func(t *testing.T) {
		older := snapshotAt(time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC), "i-old")
		newer := snapshotAt(time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), "i-new")
		require.NoError(t, f.store.SaveSnapshot(ctx, newer))
		require.NoError(t, f.store.SaveSnapshot(ctx, older))

		got, err := f.store.LatestSnapshot(ctx)

		require.NoError(t, err)
		assert.Equal(t, newer, got)
	})
}

func TestStore_SaveSnapshot(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveSnapshot(ctx, snapshotAt(time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), "i-1")))

	var total, idle, unattached int
	err := f.db.QueryRow(`SELECT total_instances, idle_instances, unattached_volumes FROM scans`).
		Scan(&total, &idle, &unattached)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, idle)
	assert.Equal(t, 1, unattached)

	assert.Error(t, f.store.SaveSnapshot(ctx, nil))
}
