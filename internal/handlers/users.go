package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GeigerTiger55/messagely/internal/models"
)

// UsersResponse wraps the user listing.
type UsersResponse struct {
	Users []models.UserSummary `json:"users"`
}

// UserResponse wraps a single full user projection.
type UserResponse struct {
	User *models.User `json:"user"`
}

// InboxResponse wraps messages addressed to a user.
type InboxResponse struct {
	Messages []models.InboxMessage `json:"messages"`
}

// OutboxResponse wraps messages sent by a user.
type OutboxResponse struct {
	Messages []models.OutboxMessage `json:"messages"`
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		h.RenderError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, UsersResponse{Users: users})
}

// GetUser handles GET /users/{username}. The ownership check has already
// run in the middleware chain.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.directory.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.RenderError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, UserResponse{User: user})
}

// Inbox handles GET /users/{username}/to.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	messages, err := h.directory.Inbox(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.RenderError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, InboxResponse{Messages: messages})
}

// Outbox handles GET /users/{username}/from.
func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	messages, err := h.directory.Outbox(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.RenderError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, OutboxResponse{Messages: messages})
}
