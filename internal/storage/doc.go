// Package storage persists built menu search indexes in SQLite.
//
// A snapshot holds everything needed to serve searches without re-embedding:
// index metadata (instance ID, dimension, embedder provider and model) and
// every indexed item with its combined vector.
//
// # Database Schema
//
// Tables:
//   - indexes: one row per instance ID
//   - index_items: item payload (JSON) and vector (little-endian float32 BLOB)
//   - schema_version: applied migrations, compared with semver
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.menusearch/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.SaveIndex(ctx, &storage.Snapshot{
//	    Info:  storage.IndexInfo{InstanceID: id, Dimension: 384, Provider: "hash"},
//	    Items: items,
//	})
//
//	snap, err := store.LoadIndex(ctx, id)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // nothing persisted yet
//	}
//
// SaveIndex runs in a single transaction. A failed save leaves the previous
// snapshot untouched.
//
// # Drivers
//
// The default build uses modernc.org/sqlite and needs no C toolchain.
// Building with -tags sqlite_vec links github.com/mattn/go-sqlite3 instead.
package storage
