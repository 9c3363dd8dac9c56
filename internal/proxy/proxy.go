// ABOUTME: Stateless credential proxy between the browser and the remote API
// ABOUTME: Mirrors upstream status codes and normalizes errors to a message envelope

package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/luisferreiraa/metamarc-backoffice/internal/upstream"
)

// Proxy forwards credential operations to the remote API. It never
// touches the session store: the browser-facing login flow decides what
// to do with the token a successful call returns.
type Proxy struct {
	upstream *upstream.Client
	logger   *slog.Logger
}

// New creates a proxy over the given upstream client.
func New(client *upstream.Client) *Proxy {
	return &Proxy{
		upstream: client,
		logger:   slog.Default().With("component", "proxy"),
	}
}

// Routes registers the proxy endpoints on mux.
func (p *Proxy) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", p.handleLogin)
	mux.HandleFunc("POST /api/auth/register", p.handleRegister)
	mux.HandleFunc("POST /api/user/renew-api-key", p.handleRenewAPIKey)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin forwards credentials upstream and mirrors whatever the
// upstream answers, status code included. The proxy itself issues no
// session.
func (p *Proxy) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.sendError(w, http.StatusBadRequest, "Pedido inválido")
		return
	}

	resp, err := p.upstream.Do(r.Context(), http.MethodPost, "/api/auth/login", "", req)
	if err != nil {
		p.sendUpstreamFailure(w, "login", err)
		return
	}
	p.mirror(w, resp)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *Proxy) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.sendError(w, http.StatusBadRequest, "Pedido inválido")
		return
	}

	resp, err := p.upstream.Do(r.Context(), http.MethodPost, "/api/auth/register", "", req)
	if err != nil {
		p.sendUpstreamFailure(w, "register", err)
		return
	}
	p.mirror(w, resp)
}

// handleRenewAPIKey requires a bearer token. A request without one is
// rejected locally; the upstream is never contacted.
func (p *Proxy) handleRenewAPIKey(w http.ResponseWriter, r *http.Request) {
	bearer, ok := bearerToken(r)
	if !ok {
		p.sendError(w, http.StatusUnauthorized, "Token não fornecido")
		return
	}

	resp, err := p.upstream.Do(r.Context(), http.MethodPost, "/api/user/renew-api-key", bearer, nil)
	if err != nil {
		p.sendUpstreamFailure(w, "renew-api-key", err)
		return
	}
	p.mirror(w, resp)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// mirror relays an upstream response to the browser. Success payloads
// pass through unchanged; error bodies are normalized so only the
// upstream's message field, never its internals, reaches the browser.
func (p *Proxy) mirror(w http.ResponseWriter, resp *upstream.Response) {
	if resp.OK() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
		return
	}
	p.sendError(w, resp.StatusCode, upstream.ErrorMessage(resp.Body))
}

// sendUpstreamFailure answers a call that never produced an upstream
// response. The cause is logged; the browser sees only the generic
// message.
func (p *Proxy) sendUpstreamFailure(w http.ResponseWriter, op string, err error) {
	p.logger.Error("upstream call failed", "operation", op, "error", err)
	p.sendError(w, http.StatusInternalServerError, upstream.GenericErrorMessage)
}

// sendError writes the proxy's error envelope.
func (p *Proxy) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
