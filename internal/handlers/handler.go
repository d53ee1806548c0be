package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/GeigerTiger55/messagely/internal/apperr"
	"github.com/GeigerTiger55/messagely/internal/directory"
	"github.com/GeigerTiger55/messagely/internal/ledger"
	"github.com/GeigerTiger55/messagely/internal/store"
	"github.com/GeigerTiger55/messagely/internal/token"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	directory *directory.Directory
	ledger    *ledger.Ledger
	tokens    *token.Service
	db        store.DataStore
	redis     *store.RedisStore
	logger    zerolog.Logger
}

// NewHandler creates a new Handler. redis may be nil when Redis is not
// configured. Tests pass zerolog.Nop() to keep failure logging quiet.
func NewHandler(d *directory.Directory, l *ledger.Ledger, tokens *token.Service, db store.DataStore, redis *store.RedisStore, logger zerolog.Logger) *Handler {
	return &Handler{
		directory: d,
		ledger:    l,
		tokens:    tokens,
		db:        db,
		redis:     redis,
		logger:    logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends the uniform error envelope {"error":{"message","status"}}.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]*apperr.Error{
		"error": {Message: message, Status: status},
	})
}

// RenderError maps a domain error to its status, or logs and renders 500 for
// anything uncategorized. Domain errors pass through unmodified.
func (h *Handler) RenderError(w http.ResponseWriter, err error) {
	if e := apperr.From(err); e != nil {
		h.Error(w, e.Status, e.Message)
		return
	}
	h.logger.Error().Err(err).Msg("request failed")
	h.Error(w, http.StatusInternalServerError, "internal server error")
}
