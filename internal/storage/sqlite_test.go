package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func testSnapshot(instanceID string) *Snapshot {
	calories := 420
	return &Snapshot{
		Info: IndexInfo{
			InstanceID: instanceID,
			Dimension:  3,
			Provider:   "hash",
			Model:      "hash-ngram-v1",
			BuiltAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Items: []StoredItem{
			{
				Item: types.MenuItem{
					ID:          "salad-1",
					Name:        "Garden Salad",
					Description: "Fresh greens",
					Category:    "Starters",
					SubCategory: "salads",
					Price:       8.5,
					Dietary:     types.Dietary{IsVegetarian: true, IsVegan: true},
					Ingredients: []string{"lettuce", "tomato"},
					Calories:    &calories,
				},
				Vector: []float32{1, 0, 0},
			},
			{
				Item: types.MenuItem{
					ID:       "steak-1",
					Name:     "Ribeye",
					Category: "Mains",
					Price:    32,
				},
				Vector: []float32{0, 0.6, 0.8},
			},
		},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage.db)

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestClose(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Close()
	assert.NoError(t, err)
}

func TestSaveAndLoadIndex(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	snap := testSnapshot("inst-1")
	require.NoError(t, storage.SaveIndex(ctx, snap))

	loaded, err := storage.LoadIndex(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, "inst-1", loaded.Info.InstanceID)
	assert.Equal(t, 3, loaded.Info.Dimension)
	assert.Equal(t, 2, loaded.Info.ItemCount)
	assert.Equal(t, "hash", loaded.Info.Provider)
	assert.True(t, snap.Info.BuiltAt.Equal(loaded.Info.BuiltAt))

	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "salad-1", loaded.Items[0].Item.ID, "items keep insertion order")
	assert.Equal(t, snap.Items[0].Item, loaded.Items[0].Item)
	assert.Equal(t, []float32{1, 0, 0}, loaded.Items[0].Vector)
	assert.Equal(t, "steak-1", loaded.Items[1].Item.ID)
	assert.Nil(t, loaded.Items[1].Item.Calories)
}

func TestSaveIndexReplaces(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	require.NoError(t, storage.SaveIndex(ctx, testSnapshot("inst-1")))
	first, err := storage.GetIndexInfo(ctx, "inst-1")
	require.NoError(t, err)

	replacement := testSnapshot("inst-1")
	replacement.Items = replacement.Items[1:]
	require.NoError(t, storage.SaveIndex(ctx, replacement))

	loaded, err := storage.LoadIndex(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "steak-1", loaded.Items[0].Item.ID)
	assert.Equal(t, 1, loaded.Info.ItemCount)
	assert.True(t, first.CreatedAt.Equal(loaded.Info.CreatedAt), "created_at survives replacement")
}

func TestSaveIndexValidation(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing instance id", func(s *Snapshot) { s.Info.InstanceID = " " }},
		{"zero dimension", func(s *Snapshot) { s.Info.Dimension = 0 }},
		{"wrong vector length", func(s *Snapshot) { s.Items[0].Vector = []float32{1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot("inst-v")
			tt.mutate(snap)
			err := storage.SaveIndex(ctx, snap)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}

	assert.ErrorIs(t, storage.SaveIndex(ctx, nil), ErrInvalidSnapshot)

	_, err := storage.GetIndexInfo(ctx, "inst-v")
	assert.ErrorIs(t, err, ErrNotFound, "failed saves leave nothing behind")
}

func TestSaveIndexDuplicateItemRollsBack(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	snap := testSnapshot("inst-d")
	snap.Items[1].Item.ID = snap.Items[0].Item.ID
	assert.Error(t, storage.SaveIndex(ctx, snap))

	_, err := storage.GetIndexInfo(ctx, "inst-d")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadIndexNotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.LoadIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIndex(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	require.NoError(t, storage.SaveIndex(ctx, testSnapshot("inst-1")))
	require.NoError(t, storage.DeleteIndex(ctx, "inst-1"))

	_, err := storage.LoadIndex(ctx, "inst-1")
	assert.ErrorIs(t, err, ErrNotFound)

	var remaining int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_items").Scan(&remaining))
	assert.Equal(t, 0, remaining, "items cascade with their index")

	assert.NoError(t, storage.DeleteIndex(ctx, "inst-1"), "deleting twice is fine")
}

func TestListIndexes(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	older := testSnapshot("older")
	older.Info.BuiltAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SaveIndex(ctx, older))
	require.NoError(t, storage.SaveIndex(ctx, testSnapshot("newer")))

	infos, err := storage.ListIndexes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].InstanceID)
	assert.Equal(t, "older", infos[1].InstanceID)
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	_, err := storage.GetStatus(ctx, "inst-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.SaveIndex(ctx, testSnapshot("inst-1")))

	status, err := storage.GetStatus(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 2, status.ItemsCount)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.VectorsAvailable)
	assert.GreaterOrEqual(t, status.IndexSizeMB, 0.0)
}

func TestMigrationsRollback(t *testing.T) {
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, ApplyMigrations(ctx, db), "reapplying is a no-op")

	require.NoError(t, RollbackMigration(ctx, db))
	version, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	require.NoError(t, RollbackMigration(ctx, db))
	version, err = SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", version)

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='indexes'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, ApplyMigrations(ctx, db))
	version, err = SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
