// ABOUTME: Session state propagation through request contexts
// ABOUTME: Provides WithState/FromContext so guards share one snapshot per request

package session

import (
	"context"
)

// stateContextKey is the key type for storing State in context.Context.
type stateContextKey struct{}

// WithState returns a new context with the session state snapshot attached.
// The snapshot is resolved once per request; every guard and handler on the
// page tree reads the same value instead of re-deriving it.
func WithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

// FromContext retrieves the session state snapshot from the context.
// The second return is false if no snapshot has been attached.
func FromContext(ctx context.Context) (State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(State)
	return st, ok
}

// PrincipalFromContext returns the resolved principal, or nil if the
// request has no authenticated session.
func PrincipalFromContext(ctx context.Context) *Principal {
	st, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return st.User
}
