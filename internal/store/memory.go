package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/model/user"
)

// Memory implements Adapter with in-process maps, suitable for tests and for
// running without a database.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]user.Profile // keyed by id
	hashes   map[string]string       // user id -> password hash
	sessions map[string]chatmodel.Session
	messages map[string][]chatmodel.StoredMessage // keyed by chat id
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]user.Profile),
		hashes:   make(map[string]string),
		sessions: make(map[string]chatmodel.Session),
		messages: make(map[string][]chatmodel.StoredMessage),
	}
}

func (m *Memory) CreateUser(_ context.Context, profile user.Profile, passwordHash string) (user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == profile.Email {
			return user.Profile{}, ErrEmailTaken
		}
	}

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	m.users[profile.ID] = profile
	m.hashes[profile.ID] = passwordHash
	return profile, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (user.Profile, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, profile := range m.users {
		if profile.Email == email {
			return profile, m.hashes[profile.ID], nil
		}
	}
	return user.Profile{}, "", ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]user.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]user.Profile, 0, len(m.users))
	for _, profile := range m.users {
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Sessions(_ context.Context, userID string) ([]chatmodel.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []chatmodel.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SessionByID(_ context.Context, chatID string) (chatmodel.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[chatID]
	if !ok {
		return chatmodel.Session{}, ErrNotFound
	}
	return session, nil
}

func (m *Memory) CreateSession(_ context.Context, userID, title string) (chatmodel.Session, error) {
	session := chatmodel.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

func (m *Memory) Messages(_ context.Context, chatID string) ([]chatmodel.StoredMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]chatmodel.StoredMessage(nil), m.messages[chatID]...), nil
}

func (m *Memory) SaveMessage(_ context.Context, chatID, content, role, kind string) (chatmodel.StoredMessage, error) {
	row := chatmodel.StoredMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Content:   content,
		Role:      role,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.messages[chatID] = append(m.messages[chatID], row)
	m.mu.Unlock()
	return row, nil
}

func (m *Memory) CountChats(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
