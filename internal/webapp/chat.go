// ABOUTME: Support chat page backed by the remote API
// ABOUTME: Renders assistant replies from markdown to sanitized-enough HTML

package webapp

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
	"github.com/luisferreiraa/metamarc-backoffice/internal/upstream"
)

func (app *App) handleChatPage(w http.ResponseWriter, r *http.Request) {
	user := session.PrincipalFromContext(r.Context())
	csrfToken := app.ensureCSRFToken(w, r)
	app.renderChatPage(w, user, csrfToken)
}

// handleChatMessage forwards the user's message upstream and serves the
// exchange as an htmx fragment appended to the conversation.
func (app *App) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !app.validateCSRF(r) {
		app.renderErrorFragment(w, "Sessão expirada, tente novamente")
		return
	}

	message := r.FormValue("message")
	if message == "" {
		app.renderErrorFragment(w, "A mensagem não pode estar vazia")
		return
	}

	reply, err := app.upstream.Chat(r.Context(), app.sessions.Token(r), message)
	if err != nil {
		app.logger.Error("chat message failed", "error", err)
		app.renderErrorFragment(w, upstream.GenericErrorMessage)
		return
	}

	app.renderChatExchange(w, message, renderMarkdown(reply))
}

// renderMarkdown converts an assistant reply to HTML. A conversion
// failure falls back to a plain error paragraph rather than serving
// raw markdown.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<p>Não foi possível apresentar a resposta.</p>")
	}
	return template.HTML(buf.String())
}
