// Package directory implements the identity directory: registration,
// credential checks, and user-centric reads over an injected data store.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/GeigerTiger55/messagely/internal/apperr"
	"github.com/GeigerTiger55/messagely/internal/credentials"
	"github.com/GeigerTiger55/messagely/internal/models"
	"github.com/GeigerTiger55/messagely/internal/store"
)

// RegisterParams holds the fields required to create a user. All fields are
// required and must be non-empty.
type RegisterParams struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Directory provides CRUD-like accessors over user records.
type Directory struct {
	store  store.DataStore
	hasher *credentials.Hasher
}

// New creates a Directory backed by the given store and hasher.
func New(s store.DataStore, h *credentials.Hasher) *Directory {
	return &Directory{store: s, hasher: h}
}

// Register hashes the password and creates the user. A duplicate username
// surfaces as a conflict error, never a silent overwrite.
func (d *Directory) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	required := []struct{ name, value string }{
		{"username", p.Username},
		{"password", p.Password},
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"phone", p.Phone},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, apperr.BadRequest(fmt.Sprintf("%s is required", f.name))
		}
	}

	digest, err := d.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	user, err := d.store.CreateUser(ctx, p.Username, digest, p.FirstName, p.LastName, p.Phone)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict(fmt.Sprintf("username %q already taken", p.Username))
		}
		return nil, err
	}
	return user, nil
}

// Authenticate reports whether username/password is a valid credential pair.
// An unknown username and a wrong password both return plain false, so
// callers cannot distinguish them.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := d.store.GetUser(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return d.hasher.Verify(password, user.PasswordHash)
}

// RecordLogin sets last_login_at to the current server time. Only reachable
// after a successful Authenticate, so the not-found branch is defensive.
func (d *Directory) RecordLogin(ctx context.Context, username string) error {
	found, err := d.store.UpdateLastLogin(ctx, username)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound(fmt.Sprintf("no such user: %s", username))
	}
	return nil
}

// List returns basic info on all users. Order is storage-defined.
func (d *Directory) List(ctx context.Context) ([]models.UserSummary, error) {
	return d.store.ListUsers(ctx)
}

// Get returns the full profile for username. The password hash never
// serializes out of the model.
func (d *Directory) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := d.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound(fmt.Sprintf("no such user: %s", username))
	}
	return user, nil
}

// Inbox returns all messages addressed to username, enriched with each
// sender's profile. Empty slice, not an error, when there are none.
func (d *Directory) Inbox(ctx context.Context, username string) ([]models.InboxMessage, error) {
	return d.store.MessagesTo(ctx, username)
}

// Outbox returns all messages sent by username, enriched with each
// recipient's profile.
func (d *Directory) Outbox(ctx context.Context, username string) ([]models.OutboxMessage, error) {
	return d.store.MessagesFrom(ctx, username)
}
