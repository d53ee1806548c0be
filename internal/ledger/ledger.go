// Package ledger implements the message lifecycle: append-only creation and
// the one-way unread -> read transition.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/GeigerTiger55/messagely/internal/apperr"
	"github.com/GeigerTiger55/messagely/internal/models"
	"github.com/GeigerTiger55/messagely/internal/store"
)

// Ledger provides message operations over an injected data store.
type Ledger struct {
	store store.DataStore
}

// New creates a Ledger backed by the given store.
func New(s store.DataStore) *Ledger {
	return &Ledger{store: s}
}

// Send creates a message from fromUsername to toUsername. The caller is
// responsible for ensuring fromUsername is the authenticated identity.
func (l *Ledger) Send(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {
	if body == "" {
		return nil, apperr.BadRequest("body is required")
	}

	for _, username := range []string{fromUsername, toUsername} {
		user, err := l.store.GetUser(ctx, username)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperr.NotFound(fmt.Sprintf("no such user: %s", username))
		}
	}

	msg, err := l.store.CreateMessage(ctx, fromUsername, toUsername, body)
	if err != nil {
		// A participant deleted between the check and the insert.
		if errors.Is(err, store.ErrNoSuchUser) {
			return nil, apperr.NotFound("no such user")
		}
		return nil, err
	}
	return msg, nil
}

// Get returns the message with both participants enriched.
func (l *Ledger) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	msg, err := l.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound(fmt.Sprintf("no such message: %d", id))
	}
	return msg, nil
}

// MarkRead transitions the message to read. Marking an already-read message
// is a no-op that returns the original read_at; the transition never
// reverses.
func (l *Ledger) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	readAt, err := l.store.MarkMessageRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if readAt == nil {
		return nil, apperr.NotFound(fmt.Sprintf("no such message: %d", id))
	}
	return &models.ReadReceipt{ID: id, ReadAt: *readAt}, nil
}
