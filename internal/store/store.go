// ABOUTME: Core types and interfaces for durable session persistence
// ABOUTME: Defines the SessionRecord and the SessionStore interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionRecordNotFound is returned when a session record doesn't exist
// or has expired.
var ErrSessionRecordNotFound = errors.New("session record not found")

// SessionRecord is the durable session artifact written after a successful
// login. The principal is kept as the raw JSON blob returned by the upstream
// API; deserialization happens at resolve time so that a corrupted blob can
// be detected and discarded rather than crash a write path.
type SessionRecord struct {
	Token     string
	Principal []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore defines the interface for session record persistence.
type SessionStore interface {
	PutSessionRecord(ctx context.Context, rec *SessionRecord) error
	GetSessionRecord(ctx context.Context, token string) (*SessionRecord, error)
	DeleteSessionRecord(ctx context.Context, token string) error
	DeleteExpiredSessionRecords(ctx context.Context) error
}
