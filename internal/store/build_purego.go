//go:build !sqlite_cgo
// +build !sqlite_cgo

package store

// Default build: pure Go SQLite, no C compiler required, cross-compiles
// anywhere.
//
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
