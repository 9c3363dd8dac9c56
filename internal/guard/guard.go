// ABOUTME: Render-time guard boundary wrapping page handlers
// ABOUTME: Withholds content until the session snapshot confirms authorization

package guard

import (
	"log/slog"
	"net/http"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
)

// Guard is the render-time complement to the route gate. The gate keeps
// unauthorized navigations out of the render pipeline using cookie
// markers; the guard re-checks against the durable record for the
// specific page being rendered, because in-app navigations don't always
// re-enter the gate and the gate can't tell which admin page is behind a
// given prefix.
//
// A Guard holds no state of its own: it is a rendering policy over the
// session snapshot.
type Guard struct {
	Sessions *session.Manager

	// RequiredRole, when set, is folded into the authorization check:
	// a valid session with a different role is treated as unauthorized
	// for this page.
	RequiredRole string

	// FallbackPath is where denied requests are redirected.
	// Defaults to the public root.
	FallbackPath string

	logger *slog.Logger
}

// New creates a guard for pages requiring any authenticated session.
func New(sessions *session.Manager) *Guard {
	return &Guard{
		Sessions: sessions,
		logger:   slog.Default().With("component", "guard"),
	}
}

// RequireRole creates a guard for pages requiring a specific role,
// redirecting denied requests to fallbackPath.
func RequireRole(sessions *session.Manager, role, fallbackPath string) *Guard {
	return &Guard{
		Sessions:     sessions,
		RequiredRole: role,
		FallbackPath: fallbackPath,
		logger:       slog.Default().With("component", "guard"),
	}
}

// Wrap gates a page handler. The shared per-request snapshot is used
// when the session middleware has attached one; the guard's role
// requirement is folded into it, so the wrapped handler only ever runs
// with a fully authorized state in context. Denied requests redirect to
// the fallback path and render nothing.
func (g *Guard) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := session.FromContext(r.Context())
		if !ok {
			st = g.Sessions.Resolve(r.Context(), r, g.RequiredRole)
		} else if g.RequiredRole != "" && !st.HasRole(g.RequiredRole) {
			st.IsAuthenticated = false
		}

		if st.IsLoading {
			// A loading snapshot means resolution never ran; treat it
			// like a denial rather than render protected content.
			st = session.Unauthenticated()
		}

		if !st.IsAuthenticated {
			g.logger.Debug("guard denied render", "path", r.URL.Path, "required_role", g.RequiredRole)
			http.Redirect(w, r, g.fallback(), http.StatusSeeOther)
			return
		}

		next(w, r.WithContext(session.WithState(r.Context(), st)))
	}
}

func (g *Guard) fallback() string {
	if g.FallbackPath != "" {
		return g.FallbackPath
	}
	return "/"
}
