package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
)

// defaultSweepInterval is how often the background sweep removes expired
// entries. Expired entries are also treated as absent on lookup, so the
// sweep only bounds memory, not correctness.
const defaultSweepInterval = time.Hour

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-wide in-memory session store. It must be
// constructed with NewMemoryStore and its sweep started with Run.
type MemoryStore struct {
	mu            sync.Mutex
	sessions      map[uuid.UUID]*Session
	sweepInterval time.Duration
	now           func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepInterval sets how often expired sessions are pruned. (default: 1h)
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.sweepInterval = d
	}
}

// withClock overrides the time source for expiry tests.
func withClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		sessions:      make(map[uuid.UUID]*Session),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range options {
		opt(m)
	}

	return m
}

// Run prunes expired sessions on the sweep interval until ctx is canceled.
func (m *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.sweep(); removed > 0 {
				logger.Ctx(ctx).Infof("session sweep removed %d expired sessions", removed)
			}
		}
	}
}

func (m *MemoryStore) sweep() (removed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// NewSession mints an unguessable session id for the principal.
func (m *MemoryStore) NewSession(_ context.Context, principalID int64, ttl time.Duration) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "uuid.NewV4()")
	}

	now := m.now()
	s := &Session{
		ID:          id,
		PrincipalID: principalID,
		TTL:         ttl,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s

	return id, nil
}

// Session returns the record for the given id, treating expired entries as
// absent.
func (m *MemoryStore) Session(_ context.Context, sessionID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.now().After(s.ExpiresAt) {
		return nil, httpio.NewNotFoundMessagef("session %s not found", sessionID)
	}

	clone := *s

	return &clone, nil
}

// UpdateSessionActivity slides the session expiry forward by its own TTL.
func (m *MemoryStore) UpdateSessionActivity(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.now().After(s.ExpiresAt) {
		return httpio.NewNotFoundMessagef("session %s not found", sessionID)
	}

	now := m.now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(s.TTL)

	return nil
}

// DestroySession removes the session. Idempotent.
func (m *MemoryStore) DestroySession(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)

	return nil
}
