// Package routegate implements the edge-level route gate.
//
// The gate runs before any page handler and decides, from cookie state
// alone, whether a navigation may proceed. It deliberately does not read
// the durable session store: the token and userRole cookies are markers
// mirrored from the session at login, and the gate trusts them the way
// an edge runtime with no storage access would. The render-time guard
// (package guard) re-checks against the durable record, so a tampered
// role cookie alone cannot reach admin content.
//
// Every branch terminates in a forward or a redirect; the gate never
// returns an error and never writes a response body.
package routegate
