package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/GeigerTiger55/messagely/internal/directory"
	"github.com/GeigerTiger55/messagely/internal/metrics"
)

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a user and logs them in, returning a session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req directory.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.directory.Register(r.Context(), req)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	tok, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	metrics.UsersRegistered.Inc()
	h.JSON(w, http.StatusOK, TokenResponse{Token: tok})
}

// Login verifies credentials, records the login time, and returns a session
// token. Unknown username and wrong password are indistinguishable to the
// client.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ok, err := h.directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.RenderError(w, err)
		return
	}
	if !ok {
		metrics.Logins.WithLabelValues("failure").Inc()
		h.Error(w, http.StatusUnauthorized, "invalid username/password")
		return
	}

	if err := h.directory.RecordLogin(r.Context(), req.Username); err != nil {
		h.RenderError(w, err)
		return
	}

	tok, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	metrics.Logins.WithLabelValues("success").Inc()
	h.JSON(w, http.StatusOK, TokenResponse{Token: tok})
}
