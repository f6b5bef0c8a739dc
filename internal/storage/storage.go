package storage

import (
	"context"
	"time"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

// Storage persists built search indexes so they can be reused across sessions
type Storage interface {
	// SaveIndex replaces the stored snapshot for snapshot.Info.InstanceID
	SaveIndex(ctx context.Context, snapshot *Snapshot) error

	// LoadIndex returns the stored snapshot, or ErrNotFound
	LoadIndex(ctx context.Context, instanceID string) (*Snapshot, error)

	// DeleteIndex removes a stored snapshot. Deleting a missing snapshot is not an error.
	DeleteIndex(ctx context.Context, instanceID string) error

	// GetIndexInfo returns snapshot metadata without loading vectors, or ErrNotFound
	GetIndexInfo(ctx context.Context, instanceID string) (*IndexInfo, error)

	// ListIndexes returns metadata for every stored snapshot
	ListIndexes(ctx context.Context) ([]*IndexInfo, error)

	// GetStatus reports statistics and health for an instance
	GetStatus(ctx context.Context, instanceID string) (*IndexStatus, error)

	// Close closes the underlying database
	Close() error
}

// IndexInfo describes a stored snapshot
type IndexInfo struct {
	InstanceID string
	Dimension  int
	ItemCount  int
	Provider   string
	Model      string
	BuiltAt    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StoredItem is one indexed menu item with its combined embedding
type StoredItem struct {
	Item   types.MenuItem
	Vector []float32
}

// Snapshot is a complete persisted index
type Snapshot struct {
	Info  IndexInfo
	Items []StoredItem
}

// IndexStatus contains statistics about a stored index
type IndexStatus struct {
	Info        *IndexInfo
	ItemsCount  int
	IndexSizeMB float64
	Health      HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	VectorsAvailable   bool
}
