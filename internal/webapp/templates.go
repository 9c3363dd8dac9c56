// ABOUTME: Template rendering functions for backoffice pages
// ABOUTME: Loads templates from embedded filesystem and renders them

package webapp

import (
	"html/template"
	"net/http"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
	"github.com/luisferreiraa/metamarc-backoffice/internal/upstream"
)

// Template data types
type loginData struct {
	Title     string
	User      *session.Principal // always nil; base layout expects the field
	Error     string
	CSRFToken string
}

type registerData struct {
	Title     string
	User      *session.Principal // always nil; base layout expects the field
	Error     string
	Message   string
	CSRFToken string
}

type dashboardData struct {
	Title     string
	User      *session.Principal
	CSRFToken string
}

type statsData struct {
	Stats *upstream.Stats
}

type apiKeyData struct {
	APIKey string
}

type chatPageData struct {
	Title     string
	User      *session.Principal
	CSRFToken string
}

type chatExchangeData struct {
	Question string
	Answer   template.HTML
}

type adminData struct {
	Title     string
	User      *session.Principal
	CSRFToken string
}

type usersData struct {
	Title     string
	User      *session.Principal
	Users     []session.Principal
	CSRFToken string
}

type errorFragmentData struct {
	Message string
}

// renderLoginPage renders the login page
func (app *App) renderLoginPage(w http.ResponseWriter, errorMsg, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title:     "Entrar",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render login page", "error", err)
	}
}

// renderRegisterPage renders the registration page
func (app *App) renderRegisterPage(w http.ResponseWriter, errorMsg, message, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/register.html"))

	data := registerData{
		Title:     "Criar conta",
		Error:     errorMsg,
		Message:   message,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render register page", "error", err)
	}
}

// renderDashboard renders the main dashboard
func (app *App) renderDashboard(w http.ResponseWriter, user *session.Principal, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/dashboard.html"))

	data := dashboardData{
		Title:     "Dashboard",
		User:      user,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render dashboard", "error", err)
	}
}

// renderStats renders the stats fragment (htmx partial)
func (app *App) renderStats(w http.ResponseWriter, stats *upstream.Stats) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/stats.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, statsData{Stats: stats}); err != nil {
		app.logger.Error("failed to render stats fragment", "error", err)
	}
}

// renderAPIKey renders the renewed API key fragment (htmx partial)
func (app *App) renderAPIKey(w http.ResponseWriter, apiKey string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/api_key.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, apiKeyData{APIKey: apiKey}); err != nil {
		app.logger.Error("failed to render api key fragment", "error", err)
	}
}

// renderChatPage renders the chat page
func (app *App) renderChatPage(w http.ResponseWriter, user *session.Principal, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/chat.html"))

	data := chatPageData{
		Title:     "Assistente",
		User:      user,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render chat page", "error", err)
	}
}

// renderChatExchange renders one question/answer pair (htmx partial)
func (app *App) renderChatExchange(w http.ResponseWriter, question string, answer template.HTML) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/chat_exchange.html"))

	data := chatExchangeData{
		Question: question,
		Answer:   answer,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render chat exchange", "error", err)
	}
}

// renderAdminHome renders the admin landing page
func (app *App) renderAdminHome(w http.ResponseWriter, user *session.Principal, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/admin.html"))

	data := adminData{
		Title:     "Administração",
		User:      user,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render admin page", "error", err)
	}
}

// renderAdminUsers renders the user directory page
func (app *App) renderAdminUsers(w http.ResponseWriter, user *session.Principal, users []session.Principal, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/users.html"))

	data := usersData{
		Title:     "Utilizadores",
		User:      user,
		Users:     users,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		app.logger.Error("failed to render users page", "error", err)
	}
}

// renderErrorFragment renders an inline error (htmx partial)
func (app *App) renderErrorFragment(w http.ResponseWriter, message string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/error.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, errorFragmentData{Message: message}); err != nil {
		app.logger.Error("failed to render error fragment", "error", err)
	}
}
