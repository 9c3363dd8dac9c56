// Package store provides durable persistence for session records.
//
// A SessionRecord is written once at login, read on every session
// resolution, and deleted at logout. Records carry the raw principal
// JSON blob as returned by the upstream API; the session package owns
// deserialization so that corrupted blobs resolve fail-closed instead
// of failing the write path.
//
// The SQLite implementation uses modernc.org/sqlite (pure Go, no cgo)
// with WAL mode and creates its schema on open.
package store
