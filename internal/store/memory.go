package store

import (
	"context"
	"sync"
	"time"

	"github.com/GeigerTiger55/messagely/internal/models"
)

// MemoryStore is an in-memory DataStore used by tests. It mirrors the SQL
// stores' semantics, including ErrDuplicate and the one-way read transition.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	order    []string // usernames in insertion order
	messages map[int64]*models.Message
	ids      []int64 // message ids in insertion order
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		messages: make(map[int64]*models.Message),
		nextID:   1,
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) CreateUser(ctx context.Context, username, passwordHash, firstName, lastName, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return nil, ErrDuplicate
	}
	u := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		JoinedAt:     time.Now(),
	}
	s.users[username] = u
	s.order = append(s.order, username)

	out := *u
	return &out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	out := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		out.LastLoginAt = &t
	}
	return &out, nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return false, nil
	}
	now := time.Now()
	u.LastLoginAt = &now
	return true, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []models.UserSummary{}
	for _, username := range s.order {
		u := s.users[username]
		users = append(users, models.UserSummary{
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}
	return users, nil
}

func (s *MemoryStore) contact(username string) models.UserContact {
	u := s.users[username]
	return models.UserContact{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func (s *MemoryStore) MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := []models.InboxMessage{}
	for _, id := range s.ids {
		m := s.messages[id]
		if m.ToUsername != username {
			continue
		}
		messages = append(messages, models.InboxMessage{
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   copyTime(m.ReadAt),
			FromUser: s.contact(m.FromUsername),
		})
	}
	return messages, nil
}

func (s *MemoryStore) MessagesFrom(ctx context.Context, username string) ([]models.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := []models.OutboxMessage{}
	for _, id := range s.ids {
		m := s.messages[id]
		if m.FromUsername != username {
			continue
		}
		messages = append(messages, models.OutboxMessage{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: copyTime(m.ReadAt),
			ToUser: s.contact(m.ToUsername),
		})
	}
	return messages, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[fromUsername]; !ok {
		return nil, ErrNoSuchUser
	}
	if _, ok := s.users[toUsername]; !ok {
		return nil, ErrNoSuchUser
	}

	m := &models.Message{
		ID:           s.nextID,
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       time.Now(),
	}
	s.nextID++
	s.messages[m.ID] = m
	s.ids = append(s.ids, m.ID)

	out := *m
	return &out, nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return &models.MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   copyTime(m.ReadAt),
		FromUser: s.contact(m.FromUsername),
		ToUser:   s.contact(m.ToUsername),
	}, nil
}

func (s *MemoryStore) MarkMessageRead(ctx context.Context, id int64) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	if m.ReadAt == nil {
		now := time.Now()
		m.ReadAt = &now
	}
	return copyTime(m.ReadAt), nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
