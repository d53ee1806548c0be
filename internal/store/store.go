package store

import (
	"context"
	"errors"
	"time"

	"github.com/GeigerTiger55/messagely/internal/models"
)

// ErrDuplicate is returned by CreateUser when the username is already taken.
var ErrDuplicate = errors.New("store: duplicate key")

// ErrNoSuchUser is returned by CreateMessage when a participant row is gone
// by the time the insert runs (foreign key violation).
var ErrNoSuchUser = errors.New("store: no such user")

// DataStore defines the interface for persistent storage of users and
// messages. PostgresStore, SQLiteStore, and MemoryStore implement it.
// Lookup methods return (nil, nil) when the row does not exist; callers
// translate that into their own not-found errors.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, username, passwordHash, firstName, lastName, phone string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, username string) (bool, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error)
	MessagesFrom(ctx context.Context, username string) ([]models.OutboxMessage, error)

	// Message operations
	CreateMessage(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error)
	GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error)
	// MarkMessageRead sets read_at if it is still null and returns the
	// message's read_at either way, so concurrent calls cannot revert the
	// transition. Returns (nil, nil) when the message does not exist.
	MarkMessageRead(ctx context.Context, id int64) (*time.Time, error)
}
