// ABOUTME: Tests for the edge route gate
// ABOUTME: Covers path classification and cookie-gated forwarding and redirects

package routegate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Classification
	}{
		{"/", Public},
		{"/login", Public},
		{"/api/auth/login", Public},
		{"/dashboard", Protected},
		{"/dashboard/", Protected},
		{"/dashboard/chat", Protected},
		{"/dashboardx", Protected}, // exact-prefix containment, no segment normalization
		{"/admin", ProtectedAdmin},
		{"/admin/users", ProtectedAdmin},
		{"/Admin", Public}, // case-sensitive
	}

	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// gateRequest runs a request through the gate in front of a marker handler
// and returns the response.
func gateRequest(t *testing.T, path string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	forwarded := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()

	New(nil).Middleware(next).ServeHTTP(rec, req)
	return rec, forwarded
}

func tokenCookie(v string) *http.Cookie {
	return &http.Cookie{Name: session.TokenCookie, Value: v}
}

func roleCookie(v string) *http.Cookie {
	return &http.Cookie{Name: session.RoleCookie, Value: v}
}

func TestGate_PublicAlwaysForwards(t *testing.T) {
	// No cookies at all
	if _, forwarded := gateRequest(t, "/"); !forwarded {
		t.Error("public path should forward without cookies")
	}
	// Cookie state is irrelevant on public paths
	if _, forwarded := gateRequest(t, "/about", tokenCookie("abc"), roleCookie("CLIENT")); !forwarded {
		t.Error("public path should forward regardless of cookies")
	}
}

func TestGate_ProtectedWithoutTokenRedirectsToLogin(t *testing.T) {
	rec, forwarded := gateRequest(t, "/dashboard")
	if forwarded {
		t.Error("handler should not be called")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}
}

func TestGate_ProtectedWithEmptyTokenRedirectsToLogin(t *testing.T) {
	rec, forwarded := gateRequest(t, "/dashboard", tokenCookie(""))
	if forwarded {
		t.Error("handler should not be called")
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}
}

func TestGate_ProtectedWithTokenForwards(t *testing.T) {
	// E2E scenario: /dashboard with token and no role cookie is forwarded
	_, forwarded := gateRequest(t, "/dashboard", tokenCookie("abc"))
	if !forwarded {
		t.Error("token-bearing request to /dashboard should forward")
	}
}

func TestGate_AdminWithoutTokenRedirectsToLogin(t *testing.T) {
	// E2E scenario: /admin/users with no cookies redirects to /
	rec, forwarded := gateRequest(t, "/admin/users")
	if forwarded {
		t.Error("handler should not be called")
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}
}

func TestGate_AdminWithWrongRoleRedirectsToDashboard(t *testing.T) {
	// E2E scenario: token present but role CLIENT bounces to /dashboard,
	// not to the login path; the user keeps their session.
	rec, forwarded := gateRequest(t, "/admin/users", tokenCookie("abc"), roleCookie("CLIENT"))
	if forwarded {
		t.Error("handler should not be called")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != DashboardPath {
		t.Errorf("Location = %q, want %q", loc, DashboardPath)
	}
}

func TestGate_AdminWithMissingRoleRedirectsToDashboard(t *testing.T) {
	rec, _ := gateRequest(t, "/admin", tokenCookie("abc"))
	if loc := rec.Header().Get("Location"); loc != DashboardPath {
		t.Errorf("Location = %q, want %q", loc, DashboardPath)
	}
}

func TestGate_AdminWithAdminRoleForwards(t *testing.T) {
	_, forwarded := gateRequest(t, "/admin/users", tokenCookie("abc"), roleCookie(session.RoleAdmin))
	if !forwarded {
		t.Error("admin-marked request to /admin/users should forward")
	}
}

func TestGate_RoleCaseIsSignificant(t *testing.T) {
	rec, forwarded := gateRequest(t, "/admin", tokenCookie("abc"), roleCookie("admin"))
	if forwarded {
		t.Error("lowercase role marker must not pass the admin check")
	}
	if loc := rec.Header().Get("Location"); loc != DashboardPath {
		t.Errorf("Location = %q, want %q", loc, DashboardPath)
	}
}

type recordingMetrics struct {
	outcomes []string
}

func (r *recordingMetrics) RecordGateDecision(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestGate_RecordsDecisions(t *testing.T) {
	metrics := &recordingMetrics{}
	gate := New(metrics)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	paths := []struct {
		path    string
		cookies []*http.Cookie
		want    string
	}{
		{"/", nil, OutcomeForward},
		{"/dashboard", nil, OutcomeRedirectLogin},
		{"/admin", []*http.Cookie{tokenCookie("abc")}, OutcomeRedirectDashboard},
	}

	for _, tt := range paths {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		for _, c := range tt.cookies {
			req.AddCookie(c)
		}
		gate.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []string{OutcomeForward, OutcomeRedirectLogin, OutcomeRedirectDashboard}
	if len(metrics.outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", metrics.outcomes, want)
	}
	for i := range want {
		if metrics.outcomes[i] != want[i] {
			t.Errorf("outcome[%d] = %q, want %q", i, metrics.outcomes[i], want[i])
		}
	}
}
