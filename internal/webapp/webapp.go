// ABOUTME: Browser-facing pages of the backoffice
// ABOUTME: Login and registration forms, dashboard, chat, and admin pages

package webapp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/luisferreiraa/metamarc-backoffice/internal/guard"
	"github.com/luisferreiraa/metamarc-backoffice/internal/routegate"
	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
	"github.com/luisferreiraa/metamarc-backoffice/internal/upstream"
)

// App serves the server-rendered backoffice pages. It owns the login
// and logout flows; everything behind the gate reads the session
// snapshot from the request context and calls the remote API with the
// session's bearer token.
type App struct {
	sessions *session.Manager
	upstream *upstream.Client
	logger   *slog.Logger
}

// New creates the webapp over the given session manager and API client.
func New(sessions *session.Manager, client *upstream.Client) *App {
	return &App{
		sessions: sessions,
		upstream: client,
		logger:   slog.Default().With("component", "webapp"),
	}
}

// RegisterRoutes registers all page routes on mux. Protected pages are
// wrapped in the render-time guard; the admin section additionally
// requires the ADMIN role and falls back to the dashboard.
func (app *App) RegisterRoutes(mux *http.ServeMux) {
	anyUser := guard.New(app.sessions)
	adminOnly := guard.RequireRole(app.sessions, session.RoleAdmin, routegate.DashboardPath)

	// Public
	mux.HandleFunc("GET /{$}", app.handleLoginPage)
	mux.HandleFunc("POST /login", app.handleLogin)
	mux.HandleFunc("GET /register", app.handleRegisterPage)
	mux.HandleFunc("POST /register", app.handleRegister)
	mux.HandleFunc("POST /logout", app.handleLogout)

	// Protected
	mux.HandleFunc("GET /dashboard", anyUser.Wrap(app.handleDashboard))
	mux.HandleFunc("GET /dashboard/stats", anyUser.Wrap(app.handleStats))
	mux.HandleFunc("POST /dashboard/renew-api-key", anyUser.Wrap(app.handleRenewAPIKey))
	mux.HandleFunc("GET /dashboard/chat", anyUser.Wrap(app.handleChatPage))
	mux.HandleFunc("POST /dashboard/chat", anyUser.Wrap(app.handleChatMessage))

	// Admin
	mux.HandleFunc("GET /admin", adminOnly.Wrap(app.handleAdminHome))
	mux.HandleFunc("GET /admin/users", adminOnly.Wrap(app.handleAdminUsers))
}

// handleLoginPage renders the login form. An authenticated visitor is
// sent straight to the dashboard instead.
func (app *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if st := app.sessions.Resolve(r.Context(), r, ""); st.IsAuthenticated {
		http.Redirect(w, r, routegate.DashboardPath, http.StatusSeeOther)
		return
	}

	csrfToken := app.ensureCSRFToken(w, r)
	app.renderLoginPage(w, "", csrfToken)
}

// handleLogin processes the login form: credentials go upstream, and on
// success the session is committed before the browser is redirected.
func (app *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderLoginPage(w, "Pedido inválido", csrfToken)
		return
	}

	if !app.validateCSRF(r) {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderLoginPage(w, "Sessão expirada, tente novamente", csrfToken)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderLoginPage(w, "Email e palavra-passe são obrigatórios", csrfToken)
		return
	}

	result, err := app.upstream.Login(r.Context(), email, password)
	if err != nil {
		csrfToken := app.ensureCSRFToken(w, r)
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			app.renderLoginPage(w, apiErr.Message, csrfToken)
			return
		}
		app.logger.Error("login failed", "error", err)
		app.renderLoginPage(w, upstream.GenericErrorMessage, csrfToken)
		return
	}

	if err := app.sessions.Commit(r.Context(), w, r, result.Token, &result.User); err != nil {
		// No cookies were written, so the browser stays logged out.
		app.logger.Error("failed to commit session", "error", err)
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderLoginPage(w, upstream.GenericErrorMessage, csrfToken)
		return
	}

	http.Redirect(w, r, routegate.DashboardPath, http.StatusSeeOther)
}

// handleRegisterPage renders the registration form.
func (app *App) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	csrfToken := app.ensureCSRFToken(w, r)
	app.renderRegisterPage(w, "", "", csrfToken)
}

// handleRegister creates an account upstream. Registration never
// issues a session; the new user logs in afterwards.
func (app *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderRegisterPage(w, "Pedido inválido", "", csrfToken)
		return
	}

	if !app.validateCSRF(r) {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderRegisterPage(w, "Sessão expirada, tente novamente", "", csrfToken)
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	if name == "" || email == "" || password == "" {
		csrfToken := app.ensureCSRFToken(w, r)
		app.renderRegisterPage(w, "Todos os campos são obrigatórios", "", csrfToken)
		return
	}

	result, err := app.upstream.Register(r.Context(), name, email, password)
	if err != nil {
		csrfToken := app.ensureCSRFToken(w, r)
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			app.renderRegisterPage(w, apiErr.Message, "", csrfToken)
			return
		}
		app.logger.Error("registration failed", "error", err)
		app.renderRegisterPage(w, upstream.GenericErrorMessage, "", csrfToken)
		return
	}

	csrfToken := app.ensureCSRFToken(w, r)
	app.renderRegisterPage(w, "", result.Message, csrfToken)
}

// handleLogout tears the session down and returns to the login page.
// It works the same whether or not a session exists.
func (app *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		if !app.validateCSRF(r) {
			app.logger.Warn("logout request with invalid CSRF token")
		}
	}

	app.sessions.Logout(r.Context(), w, r)
	http.Redirect(w, r, routegate.LoginPath, http.StatusSeeOther)
}

func (app *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := session.PrincipalFromContext(r.Context())
	csrfToken := app.ensureCSRFToken(w, r)
	app.renderDashboard(w, user, csrfToken)
}

// handleStats serves the stats fragment the dashboard loads over htmx.
// Upstream failures render an inline error instead of breaking the page.
func (app *App) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := app.upstream.FetchStats(r.Context(), app.sessions.Token(r))
	if err != nil {
		app.logger.Error("failed to fetch stats", "error", err)
		app.renderErrorFragment(w, "Não foi possível carregar as estatísticas")
		return
	}
	app.renderStats(w, stats)
}

// handleRenewAPIKey rotates the user's API key and serves the fragment
// showing the new one.
func (app *App) handleRenewAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !app.validateCSRF(r) {
		app.renderErrorFragment(w, "Sessão expirada, tente novamente")
		return
	}

	key, err := app.upstream.RenewAPIKey(r.Context(), app.sessions.Token(r))
	if err != nil {
		app.logger.Error("failed to renew API key", "error", err)
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			app.renderErrorFragment(w, apiErr.Message)
			return
		}
		app.renderErrorFragment(w, upstream.GenericErrorMessage)
		return
	}

	app.renderAPIKey(w, key)
}

func (app *App) handleAdminHome(w http.ResponseWriter, r *http.Request) {
	user := session.PrincipalFromContext(r.Context())
	csrfToken := app.ensureCSRFToken(w, r)
	app.renderAdminHome(w, user, csrfToken)
}

// handleAdminUsers lists every account. The guard already enforced the
// ADMIN role; the upstream enforces it again on its side.
func (app *App) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := app.upstream.ListUsers(r.Context(), app.sessions.Token(r))
	if err != nil {
		app.logger.Error("failed to list users", "error", err)
		app.renderErrorFragment(w, "Não foi possível carregar os utilizadores")
		return
	}

	user := session.PrincipalFromContext(r.Context())
	csrfToken := app.ensureCSRFToken(w, r)
	app.renderAdminUsers(w, user, users, csrfToken)
}
