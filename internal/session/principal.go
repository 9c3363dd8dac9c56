// ABOUTME: Principal type and fail-closed deserialization of stored principal blobs
// ABOUTME: The principal is replaced wholesale at login and cleared wholesale at logout

package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Role names as the upstream API reports them.
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
)

// ErrMalformedPrincipal is returned when a stored principal blob cannot be
// deserialized into a usable Principal.
var ErrMalformedPrincipal = errors.New("malformed principal record")

// Principal is the authenticated user as known to the backoffice.
// It mirrors the user record returned by the upstream API on login.
type Principal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
	IsActive bool   `json:"isActive"`
}

// ParsePrincipal deserializes a stored principal blob. A blob that doesn't
// unmarshal, or that unmarshals without an ID, is malformed; callers treat
// that the same as "no session".
func ParsePrincipal(blob []byte) (*Principal, error) {
	var p Principal
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrincipal, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedPrincipal)
	}
	return &p, nil
}
