package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GeigerTiger55/messagely/internal/api/middleware"
	"github.com/GeigerTiger55/messagely/internal/metrics"
	"github.com/GeigerTiger55/messagely/internal/models"
)

// SendMessageRequest represents the send request body.
type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// MessageResponse wraps a newly created message.
type MessageResponse struct {
	Message *models.Message `json:"message"`
}

// MessageDetailResponse wraps a fully enriched message.
type MessageDetailResponse struct {
	Message *models.MessageDetail `json:"message"`
}

// ReadReceiptResponse wraps the result of marking a message read.
type ReadReceiptResponse struct {
	Message *models.ReadReceipt `json:"message"`
}

// GetMessage handles GET /messages/{id}. Only the sender or the recipient
// may view a message; any other authenticated caller gets 401.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if caller != msg.FromUser.Username && caller != msg.ToUser.Username {
		h.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.JSON(w, http.StatusOK, MessageDetailResponse{Message: msg})
}

// SendMessage handles POST /messages. The sender is always the resolved
// caller identity; a user can never send as someone else.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	msg, err := h.ledger.Send(r.Context(), caller, req.ToUsername, req.Body)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	metrics.MessagesSent.Inc()
	h.JSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// MarkMessageRead handles POST /messages/{id}/read. Only the recipient may
// mark a message read; the sender gets 401. Re-marking an already-read
// message is a no-op returning the original read_at.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if caller != msg.ToUser.Username {
		h.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	receipt, err := h.ledger.MarkRead(r.Context(), id)
	if err != nil {
		h.RenderError(w, err)
		return
	}

	metrics.MessagesRead.Inc()
	h.JSON(w, http.StatusOK, ReadReceiptResponse{Message: receipt})
}
