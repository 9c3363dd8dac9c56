// ABOUTME: Session manager owning the commit/resolve/logout lifecycle
// ABOUTME: Keeps the durable record and the two edge-marker cookies in agreement

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luisferreiraa/metamarc-backoffice/internal/store"
)

// Edge marker cookie names. The route gate reads these on every
// navigation without touching the durable store.
const (
	TokenCookie = "token"
	RoleCookie  = "userRole"
)

// RecordStore is the subset of store.SessionStore the manager needs.
type RecordStore interface {
	PutSessionRecord(ctx context.Context, rec *store.SessionRecord) error
	GetSessionRecord(ctx context.Context, token string) (*store.SessionRecord, error)
	DeleteSessionRecord(ctx context.Context, token string) error
}

// Recorder receives session lifecycle metrics. May be nil.
type Recorder interface {
	RecordSessionParseFailure()
	RecordSessionCommitted()
	RecordSessionCleared()
}

// Manager owns session state across its three storage locations: the
// durable record and the token/role cookies. Commit writes the durable
// record first and the cookies last; Logout clears in the reverse order.
// That ordering keeps the window where the tiers disagree as small as the
// non-transactional storages allow, and any observed disagreement resolves
// as "unauthenticated" rather than being reconciled.
type Manager struct {
	records RecordStore
	ttl     time.Duration
	metrics Recorder
	logger  *slog.Logger
}

// NewManager creates a session manager. ttl is the fallback session
// lifetime used when the bearer token carries no parseable expiry.
func NewManager(records RecordStore, ttl time.Duration, metrics Recorder) *Manager {
	return &Manager{
		records: records,
		ttl:     ttl,
		metrics: metrics,
		logger:  slog.Default().With("component", "session"),
	}
}

// Commit establishes a session for the given principal and bearer token:
// one logical transaction writing the durable record first, then both
// edge-marker cookies. The cookie lifetime follows the token's exp claim
// when the token is a parseable JWT; the signature is the upstream's
// concern and is not checked here.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, principal *Principal) error {
	if token == "" {
		return fmt.Errorf("committing session: empty token")
	}
	if principal == nil {
		return fmt.Errorf("committing session: nil principal")
	}

	blob, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("serializing principal: %w", err)
	}

	now := time.Now()
	expires := now.Add(m.ttl)
	if exp, ok := tokenExpiry(token); ok {
		expires = exp
	}

	rec := &store.SessionRecord{
		Token:     token,
		Principal: blob,
		CreatedAt: now,
		ExpiresAt: expires,
	}

	// Durable record first; cookies only after the record is in place.
	if err := m.records.PutSessionRecord(ctx, rec); err != nil {
		return fmt.Errorf("storing session record: %w", err)
	}

	secure := r.TLS != nil
	setMarkerCookie(w, TokenCookie, token, expires, secure)
	setMarkerCookie(w, RoleCookie, principal.Role, expires, secure)

	if m.metrics != nil {
		m.metrics.RecordSessionCommitted()
	}
	m.logger.Info("session committed", "user_id", principal.ID, "role", principal.Role, "expires_at", expires)
	return nil
}

// Resolve reconstructs the session state for a request. Missing token,
// missing record, and malformed principal blob all resolve to the
// unauthenticated default; the malformed case is logged but never
// surfaces as an error. When requiredRole is non-empty and the principal
// holds a different role, the principal is still exposed but the state
// is not authenticated for this page.
func (m *Manager) Resolve(ctx context.Context, r *http.Request, requiredRole string) State {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return Unauthenticated()
	}

	rec, err := m.records.GetSessionRecord(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, store.ErrSessionRecordNotFound) {
			m.logger.Error("failed to load session record", "error", err)
		}
		return Unauthenticated()
	}

	principal, err := ParsePrincipal(rec.Principal)
	if err != nil {
		// Fail closed: a corrupted record must never pass as a valid
		// session. Log for diagnostics and resolve unauthenticated.
		m.logger.Warn("discarding corrupted session record", "error", err)
		if m.metrics != nil {
			m.metrics.RecordSessionParseFailure()
		}
		return Unauthenticated()
	}

	st := State{User: principal, IsAuthenticated: true}
	if requiredRole != "" && principal.Role != requiredRole {
		st.IsAuthenticated = false
	}
	return st
}

// Logout tears the session down: both edge-marker cookies are expired
// first, the durable record is deleted last. Calling it without an
// active session is a no-op.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	expireMarkerCookie(w, TokenCookie)
	expireMarkerCookie(w, RoleCookie)

	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return
	}

	if err := m.records.DeleteSessionRecord(ctx, cookie.Value); err != nil {
		// The cookies are already gone, so the session is dead either
		// way; the orphaned record ages out via the expiry sweep.
		m.logger.Error("failed to delete session record", "error", err)
		return
	}

	if m.metrics != nil {
		m.metrics.RecordSessionCleared()
	}
	m.logger.Info("session cleared")
}

// Token returns the bearer token for the request's session, or empty
// when none is present. Page handlers use it for upstream calls.
func (m *Manager) Token(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware resolves the session once and attaches the snapshot to the
// request context. Guards downstream fold their own role requirement
// into the shared snapshot instead of re-resolving.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := m.Resolve(r.Context(), r, "")
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

// tokenExpiry extracts the exp claim from a bearer token without
// verifying its signature. Returns false for opaque or claimless tokens.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// setMarkerCookie sets an edge-marker cookie readable on every path.
func setMarkerCookie(w http.ResponseWriter, name, value string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// expireMarkerCookie clears an edge-marker cookie by setting an
// already-expired date.
func expireMarkerCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
