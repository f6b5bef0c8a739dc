package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidSnapshot is returned when a snapshot can't be stored
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrCorruptSnapshot is returned when stored data can't be decoded
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SaveIndex replaces any stored snapshot with the same instance ID
func (s *SQLiteStorage) SaveIndex(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	info := snapshot.Info
	if strings.TrimSpace(info.InstanceID) == "" {
		return fmt.Errorf("%w: instance id is required", ErrInvalidSnapshot)
	}
	if info.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidSnapshot)
	}
	for _, it := range snapshot.Items {
		if len(it.Vector) != info.Dimension {
			return fmt.Errorf("%w: item %s has %d dimensions, expected %d",
				ErrInvalidSnapshot, it.Item.ID, len(it.Vector), info.Dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveIndexWithQuerier(ctx, tx, snapshot); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) saveIndexWithQuerier(ctx context.Context, q querier, snapshot *Snapshot) error {
	info := snapshot.Info
	now := time.Now().UTC()
	builtAt := info.BuiltAt
	if builtAt.IsZero() {
		builtAt = now
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO indexes (instance_id, dimension, item_count, provider, model, built_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			dimension = excluded.dimension,
			item_count = excluded.item_count,
			provider = excluded.provider,
			model = excluded.model,
			built_at = excluded.built_at,
			updated_at = excluded.updated_at
	`, info.InstanceID, info.Dimension, len(snapshot.Items), info.Provider, info.Model, builtAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert index: %w", err)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM index_items WHERE instance_id = ?", info.InstanceID); err != nil {
		return fmt.Errorf("failed to clear index items: %w", err)
	}

	for pos, it := range snapshot.Items {
		payload, err := json.Marshal(it.Item)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", it.Item.ID, err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO index_items (instance_id, item_id, position, name, category, payload, vector)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, info.InstanceID, it.Item.ID, pos, it.Item.Name, it.Item.Category, string(payload), serializeVector(it.Vector))
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.Item.ID, err)
		}
	}

	return nil
}

// LoadIndex reads a snapshot with items in their original order
func (s *SQLiteStorage) LoadIndex(ctx context.Context, instanceID string) (*Snapshot, error) {
	info, err := s.GetIndexInfo(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, payload, vector
		FROM index_items
		WHERE instance_id = ?
		ORDER BY position
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query index items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := &Snapshot{Info: *info, Items: make([]StoredItem, 0, info.ItemCount)}
	for rows.Next() {
		var itemID, payload string
		var blob []byte
		if err := rows.Scan(&itemID, &payload, &blob); err != nil {
			return nil, err
		}

		var item types.MenuItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("%w: item %s payload: %v", ErrCorruptSnapshot, itemID, err)
		}

		vector, err := decodeVector(blob, info.Dimension)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}

		snapshot.Items = append(snapshot.Items, StoredItem{Item: item, Vector: vector})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// DeleteIndex removes a snapshot and its items
func (s *SQLiteStorage) DeleteIndex(ctx context.Context, instanceID string) error {
	// index_items rows go with the cascade
	_, err := s.db.ExecContext(ctx, "DELETE FROM indexes WHERE instance_id = ?", instanceID)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	return nil
}

// GetIndexInfo returns metadata for a stored snapshot
func (s *SQLiteStorage) GetIndexInfo(ctx context.Context, instanceID string) (*IndexInfo, error) {
	return s.getIndexInfoWithQuerier(ctx, s.db, instanceID)
}

func (s *SQLiteStorage) getIndexInfoWithQuerier(ctx context.Context, q querier, instanceID string) (*IndexInfo, error) {
	var info IndexInfo
	err := q.QueryRowContext(ctx, `
		SELECT instance_id, dimension, item_count, provider, model, built_at, created_at, updated_at
		FROM indexes
		WHERE instance_id = ?
	`, instanceID).Scan(
		&info.InstanceID, &info.Dimension, &info.ItemCount, &info.Provider, &info.Model,
		&info.BuiltAt, &info.CreatedAt, &info.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index info: %w", err)
	}
	return &info, nil
}

// ListIndexes returns every stored snapshot, most recently built first
func (s *SQLiteStorage) ListIndexes(ctx context.Context) ([]*IndexInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, dimension, item_count, provider, model, built_at, created_at, updated_at
		FROM indexes
		ORDER BY built_at DESC, instance_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []*IndexInfo
	for rows.Next() {
		var info IndexInfo
		if err := rows.Scan(
			&info.InstanceID, &info.Dimension, &info.ItemCount, &info.Provider, &info.Model,
			&info.BuiltAt, &info.CreatedAt, &info.UpdatedAt,
		); err != nil {
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// GetStatus retrieves statistics for a stored index
func (s *SQLiteStorage) GetStatus(ctx context.Context, instanceID string) (*IndexStatus, error) {
	info, err := s.GetIndexInfo(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	status := &IndexStatus{Info: info}

	var itemCount int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_items WHERE instance_id = ?", instanceID).Scan(&itemCount)
	if err != nil {
		return nil, err
	}
	status.ItemsCount = itemCount

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		VectorsAvailable:   itemCount > 0,
	}

	return status, nil
}
