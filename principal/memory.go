package principal

import (
	"context"
	"sync"
	"time"

	"github.com/cccteam/httpio"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used for single-node deployments and
// tests. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[int64]*Principal
	byUsername map[string]int64
	nextID     int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[int64]*Principal),
		byUsername: make(map[string]int64),
		nextID:     1,
	}
}

// Principal returns the record for the given id.
func (m *MemoryStore) Principal(_ context.Context, id int64) (*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, httpio.NewNotFoundMessagef("principal %d not found", id)
	}

	clone := *p

	return &clone, nil
}

// PrincipalByUsername returns the record for the given username.
func (m *MemoryStore) PrincipalByUsername(_ context.Context, username string) (*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return nil, httpio.NewNotFoundMessagef("principal %q not found", username)
	}

	clone := *m.byID[id]

	return &clone, nil
}

// Insert persists a new principal and returns its assigned id.
func (m *MemoryStore) Insert(_ context.Context, p *Principal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[p.Username]; ok {
		return 0, httpio.NewBadRequestMessagef("username %q is already taken", p.Username)
	}

	clone := *p
	clone.ID = m.nextID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.nextID++

	m.byID[clone.ID] = &clone
	m.byUsername[clone.Username] = clone.ID

	return clone.ID, nil
}

// SetRole changes the role for the given principal.
func (m *MemoryStore) SetRole(_ context.Context, id int64, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return httpio.NewNotFoundMessagef("principal %d not found", id)
	}
	p.Role = role

	return nil
}

// SetPasswordHash replaces the stored credential for the given principal.
func (m *MemoryStore) SetPasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return httpio.NewNotFoundMessagef("principal %d not found", id)
	}
	p.PasswordHash = hash

	return nil
}
