// Package guard withholds page rendering until the session is confirmed.
//
// The route gate at the edge classifies navigations by cookie markers
// alone; it never reads the durable record, so a stale or forged role
// cookie can slip an unauthorized navigation past it. The guard closes
// that gap at render time: each protected page handler is wrapped so it
// only runs once the resolved session snapshot confirms authentication
// (and, for role-restricted pages, the required role). Denied requests
// redirect without rendering any of the protected content.
package guard
