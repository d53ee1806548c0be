package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/GeigerTiger55/messagely/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/messagely.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/messagely.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		join_at DATETIME NOT NULL,
		last_login_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_username TEXT NOT NULL REFERENCES users(username),
		to_username TEXT NOT NULL REFERENCES users(username),
		body TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		read_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_username);
	CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_username);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser inserts a new user row. Returns ErrDuplicate when the username
// is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, firstName, lastName, phone string) (*models.User, error) {
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, username, passwordHash, firstName, lastName, phone, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return s.GetUser(ctx, username)
}

// GetUser retrieves a user by username, including the password hash.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		FROM users WHERE username = ?
	`, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.JoinedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateLastLogin sets last_login_at to the current server time. The bool
// reports whether a row was updated.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = ? WHERE username = ?
	`, time.Now(), username)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUsers retrieves basic info on all users. Order is storage-defined.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, first_name, last_name FROM users
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// MessagesTo retrieves all messages addressed to username, each joined with
// the sender's profile.
func (s *SQLiteStore) MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.from_username = u.username
		WHERE m.to_username = ?
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.InboxMessage{}
	for rows.Next() {
		var m models.InboxMessage
		err := rows.Scan(
			&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MessagesFrom retrieves all messages sent by username, each joined with the
// recipient's profile.
func (s *SQLiteStore) MessagesFrom(ctx context.Context, username string) ([]models.OutboxMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.to_username = u.username
		WHERE m.from_username = ?
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.OutboxMessage{}
	for rows.Next() {
		var m models.OutboxMessage
		err := rows.Scan(
			&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessage inserts a new message row. sent_at is assigned here at
// insertion; read_at starts null.
func (s *SQLiteStore) CreateMessage(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES (?, ?, ?, ?)
	`, fromUsername, toUsername, body, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:           id,
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       now,
	}, nil
}

// GetMessage retrieves a message by id with both participants enriched.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error) {
	msg := &models.MessageDetail{}
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON m.from_username = f.username
		JOIN users t ON m.to_username = t.username
		WHERE m.id = ?
	`, id).Scan(
		&msg.ID, &msg.Body, &msg.SentAt, &msg.ReadAt,
		&msg.FromUser.Username, &msg.FromUser.FirstName, &msg.FromUser.LastName, &msg.FromUser.Phone,
		&msg.ToUser.Username, &msg.ToUser.FirstName, &msg.ToUser.LastName, &msg.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// MarkMessageRead performs the unread -> read transition. The conditional
// update keeps the transition one-way under concurrent calls.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id int64) (*time.Time, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read_at = ?
		WHERE id = ? AND read_at IS NULL
	`, now, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n > 0 {
		return &now, nil
	}

	// Already read, or the message does not exist.
	var existing *time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT read_at FROM messages WHERE id = ?
	`, id).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}
