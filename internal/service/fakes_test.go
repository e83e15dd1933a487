package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/videohub-auth/internal/model"
	"github.com/iliyamo/videohub-auth/internal/queue"
	"github.com/iliyamo/videohub-auth/internal/repository"
)

// memStore is an in-memory UserStore and SessionStore with the same
// conditional-update contract as the MySQL repositories.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User

	failGet   error
	failSwap  error
	failClear error
	lookups   int
}

func newMemStore() *memStore { return &memStore{users: map[uint64]model.User{}} }

func (m *memStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failGet != nil {
		return model.User{}, m.failGet
	}
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetByUsernameOrEmail(_ context.Context, username, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failGet != nil {
		return model.User{}, m.failGet
	}
	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) UpdateAccount(_ context.Context, id uint64, fullname, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	for otherID, other := range m.users {
		if otherID != id && other.Email == email {
			return model.User{}, repository.ErrConflict
		}
	}
	u.Fullname, u.Email = fullname, email
	m.users[id] = u
	return u, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) Replace(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokenHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) Swap(_ context.Context, id uint64, expected, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSwap != nil {
		return false, m.failSwap
	}
	u, ok := m.users[id]
	if !ok || u.RefreshTokenHash == "" || u.RefreshTokenHash != expected {
		return false, nil
	}
	u.RefreshTokenHash = next
	m.users[id] = u
	return true, nil
}

func (m *memStore) Clear(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear != nil {
		return m.failClear
	}
	if u, ok := m.users[id]; ok {
		u.RefreshTokenHash = ""
		m.users[id] = u
	}
	return nil
}

func (m *memStore) stored(id uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].RefreshTokenHash
}

func (m *memStore) delete(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu         sync.Mutex
	registered []queue.UserRegisteredEvent
	changed    []queue.PasswordChangedEvent
	err        error
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, ev queue.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, ev)
	return p.err
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, ev queue.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, ev)
	return p.err
}

// recordingIdentities counts invalidations.
type recordingIdentities struct {
	storeIdentities
	invalidated []uint64
}

func (r *recordingIdentities) Invalidate(_ context.Context, id uint64) {
	r.invalidated = append(r.invalidated, id)
}

var errBoom = errors.New("boom")
