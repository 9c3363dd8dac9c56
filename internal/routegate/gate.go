// ABOUTME: Edge route gate classifying paths and gating them on cookie markers
// ABOUTME: Runs before any page handler, never errors, always forwards or redirects

package routegate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
)

// Redirect targets.
const (
	LoginPath     = "/"
	DashboardPath = "/dashboard"
)

// Route prefix lists. A path is protected when it starts with any
// protected prefix, admin-only when it starts with any admin-only
// prefix. Matching is case-sensitive exact-prefix; trailing slashes get
// no special treatment beyond containment.
var (
	protectedPrefixes = []string{"/dashboard", "/admin"}
	adminOnlyPrefixes = []string{"/admin"}
)

// Classification of a request path.
type Classification int

const (
	// Public paths pass through untouched regardless of cookie state.
	Public Classification = iota
	// Protected paths require any authenticated session.
	Protected
	// ProtectedAdmin paths additionally require the ADMIN role marker.
	ProtectedAdmin
)

// Classify determines the access class of a request path.
func Classify(path string) Classification {
	if !hasAnyPrefix(path, protectedPrefixes) {
		return Public
	}
	if hasAnyPrefix(path, adminOnlyPrefixes) {
		return ProtectedAdmin
	}
	return Protected
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Recorder receives gate decision metrics. May be nil.
type Recorder interface {
	RecordGateDecision(outcome string)
}

// Decision outcomes reported to the Recorder.
const (
	OutcomeForward           = "forward"
	OutcomeRedirectLogin     = "redirect_login"
	OutcomeRedirectDashboard = "redirect_dashboard"
)

// Gate is the edge route gate. It reads only the token and role cookies;
// it has no access to the durable session store and performs no network
// calls, so it can run on every navigation at negligible cost.
type Gate struct {
	metrics Recorder
	logger  *slog.Logger
}

// New creates a route gate.
func New(metrics Recorder) *Gate {
	return &Gate{
		metrics: metrics,
		logger:  slog.Default().With("component", "routegate"),
	}
}

// Middleware gates every request by path class. Each branch ends in a
// forward or a redirect; there is no error outcome. A missing credential
// and an expired one are indistinguishable here and both bounce to the
// login path, while an authenticated non-admin on an admin path bounces
// to the dashboard instead of being logged out.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch Classify(r.URL.Path) {
		case Public:
			g.record(OutcomeForward)
			next.ServeHTTP(w, r)

		case Protected:
			if !hasToken(r) {
				g.redirect(w, r, LoginPath, OutcomeRedirectLogin)
				return
			}
			g.record(OutcomeForward)
			next.ServeHTTP(w, r)

		case ProtectedAdmin:
			if !hasToken(r) {
				g.redirect(w, r, LoginPath, OutcomeRedirectLogin)
				return
			}
			if role, _ := cookieValue(r, session.RoleCookie); role != session.RoleAdmin {
				g.redirect(w, r, DashboardPath, OutcomeRedirectDashboard)
				return
			}
			g.record(OutcomeForward)
			next.ServeHTTP(w, r)
		}
	})
}

func (g *Gate) redirect(w http.ResponseWriter, r *http.Request, target, outcome string) {
	g.record(outcome)
	g.logger.Debug("gated navigation", "path", r.URL.Path, "target", target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (g *Gate) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordGateDecision(outcome)
	}
}

// hasToken reports whether the request carries a non-empty token cookie.
func hasToken(r *http.Request) bool {
	v, ok := cookieValue(r, session.TokenCookie)
	return ok && v != ""
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
