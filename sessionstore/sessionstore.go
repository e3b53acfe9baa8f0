// Package sessionstore implements the TTL-bounded mapping from an opaque
// session identifier to the principal it was issued for. There are in-memory
// and Postgres implementations; both treat unknown and expired sessions
// identically so a caller cannot tell why a session is invalid.
package sessionstore

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

// Session is a single session record. The payload is the principal id only;
// the full principal is re-fetched from its store on every request so role
// changes take effect without a logout.
type Session struct {
	ID          uuid.UUID
	PrincipalID int64
	TTL         time.Duration
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// Store manages session records.
type Store interface {
	// NewSession mints an unguessable session id for the principal with the
	// given TTL. The TTL is fixed for the lifetime of the session.
	NewSession(ctx context.Context, principalID int64, ttl time.Duration) (uuid.UUID, error)
	// Session returns the record for the given id. Unknown and expired
	// sessions both return an error satisfying httpio.HasNotFound.
	Session(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	// UpdateSessionActivity slides the session expiry forward by its own TTL.
	UpdateSessionActivity(ctx context.Context, sessionID uuid.UUID) error
	// DestroySession removes the session. Destroying an absent session is
	// not an error.
	DestroySession(ctx context.Context, sessionID uuid.UUID) error
}
