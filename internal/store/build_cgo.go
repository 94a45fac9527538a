//go:build sqlite_cgo
// +build sqlite_cgo

package store

// Compiled when building with CGO and the sqlite_cgo tag:
//
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// Uses the C SQLite driver, which is noticeably faster for large libraries.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
