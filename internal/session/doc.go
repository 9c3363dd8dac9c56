// Package session owns the backoffice session lifecycle.
//
// A session lives in three storage locations at once:
//
//  1. the durable record (token + principal blob) in the store
//  2. the "token" cookie, an opaque bearer marker
//  3. the "userRole" cookie, a role marker
//
// The route gate reads only the cookies; the Manager reads the durable
// record. Nothing forces the three to agree atomically, so the Manager
// orders its writes to shrink the disagreement window (record first,
// cookies last on commit; cookies first, record last on logout) and any
// observed disagreement resolves fail-closed as "unauthenticated".
//
// Resolve produces a State snapshot per request; the Middleware attaches
// it to the request context so that every guard on a page tree reads the
// same snapshot.
package session
