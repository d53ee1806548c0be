package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GeigerTiger55/messagely/internal/models"
)

// Postgres error codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		join_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		from_username TEXT NOT NULL REFERENCES users(username),
		to_username TEXT NOT NULL REFERENCES users(username),
		body TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		read_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_username);
	CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_username);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser inserts a new user row. Returns ErrDuplicate when the username
// is already taken.
func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash, firstName, lastName, phone string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING username, password, first_name, last_name, phone, join_at, last_login_at
	`, username, passwordHash, firstName, lastName, phone).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.JoinedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by username, including the password hash.
func (s *PostgresStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		FROM users WHERE username = $1
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateLastLogin sets last_login_at to the current server time. The bool
// reports whether a row was updated.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, username string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET last_login_at = NOW() WHERE username = $1
	`, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUsers retrieves basic info on all users. Order is storage-defined.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
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
func (s *PostgresStore) MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.from_username = u.username
		WHERE m.to_username = $1
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
func (s *PostgresStore) MessagesFrom(ctx context.Context, username string) ([]models.OutboxMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.to_username = u.username
		WHERE m.from_username = $1
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

// CreateMessage inserts a new message row. sent_at is assigned by the
// database; read_at starts null.
func (s *PostgresStore) CreateMessage(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (from_username, to_username, body)
		VALUES ($1, $2, $3)
		RETURNING id, from_username, to_username, body, sent_at, read_at
	`, fromUsername, toUsername, body).Scan(
		&msg.ID,
		&msg.FromUsername,
		&msg.ToUsername,
		&msg.Body,
		&msg.SentAt,
		&msg.ReadAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}
	return msg, nil
}

// GetMessage retrieves a message by id with both participants enriched.
func (s *PostgresStore) GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error) {
	msg := &models.MessageDetail{}
	err := s.pool.QueryRow(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON m.from_username = f.username
		JOIN users t ON m.to_username = t.username
		WHERE m.id = $1
	`, id).Scan(
		&msg.ID, &msg.Body, &msg.SentAt, &msg.ReadAt,
		&msg.FromUser.Username, &msg.FromUser.FirstName, &msg.FromUser.LastName, &msg.FromUser.Phone,
		&msg.ToUser.Username, &msg.ToUser.FirstName, &msg.ToUser.LastName, &msg.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// MarkMessageRead performs the unread -> read transition. The conditional
// update means concurrent calls race harmlessly: whichever commits first
// sets read_at, and everyone reads back the same value.
func (s *PostgresStore) MarkMessageRead(ctx context.Context, id int64) (*time.Time, error) {
	var readAt time.Time
	err := s.pool.QueryRow(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE id = $1 AND read_at IS NULL
		RETURNING read_at
	`, id).Scan(&readAt)
	if err == nil {
		return &readAt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Already read, or the message does not exist.
	var existing *time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT read_at FROM messages WHERE id = $1
	`, id).Scan(&existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}
