// ABOUTME: Session state snapshot exposed to guards and page handlers
// ABOUTME: Provides role-query predicates that stay false for a nil principal

package session

// State is the resolved authentication state for one request. The zero
// value is the settled "no session" state. Resolve always returns a
// settled state, so IsLoading can only be observed before resolution
// has run.
type State struct {
	User            *Principal
	IsAuthenticated bool
	IsLoading       bool
}

// Loading returns the pre-resolution state.
func Loading() State {
	return State{IsLoading: true}
}

// Unauthenticated returns the settled state for "no session".
func Unauthenticated() State {
	return State{}
}

// HasRole reports whether the current principal holds the given role.
// Always false when no principal is present.
func (s State) HasRole(role string) bool {
	return s.User != nil && s.User.Role == role
}

// IsAdmin reports whether the current principal is an administrator.
func (s State) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// IsClient reports whether the current principal is a client user.
func (s State) IsClient() bool {
	return s.HasRole(RoleClient)
}
