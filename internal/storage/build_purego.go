//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Compiled by default and with the purego tag. No C compiler is required,
// so the binary cross-compiles cleanly.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// NativeDriver reports whether the C SQLite library is linked in
	NativeDriver = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
