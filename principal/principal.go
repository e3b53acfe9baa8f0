// Package principal defines the authenticated entity (user) model and the
// store it is resolved from on every request.
package principal

import (
	"context"
	"time"

	"github.com/go-playground/errors/v5"
)

// Role is the closed set of access roles. Anything outside the three
// constants below is invalid.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleCustomer   Role = "customer"
)

// ParseRole converts s into a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTechnician, RoleCustomer:
		return Role(s), nil
	default:
		return "", errors.Newf("invalid role %q", s)
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleCustomer:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Principal is a user record. PasswordHash holds the stored credential
// produced by the credential package, never a plaintext password.
type Principal struct {
	ID           int64     `db:"Id"           json:"id"`
	Username     string    `db:"Username"     json:"username"`
	PasswordHash string    `db:"PasswordHash" json:"-"`
	Role         Role      `db:"Role"         json:"role"`
	DisplayName  string    `db:"DisplayName"  json:"displayName"`
	Email        string    `db:"Email"        json:"email,omitempty"`
	Disabled     bool      `db:"Disabled"     json:"-"`
	CreatedAt    time.Time `db:"CreatedAt"    json:"-"`
}

// Store is the principal lookup and mutation interface. Lookups for unknown
// records return an error satisfying httpio.HasNotFound.
type Store interface {
	// Principal returns the record for the given id.
	Principal(ctx context.Context, id int64) (*Principal, error)
	// PrincipalByUsername returns the record for the given username.
	PrincipalByUsername(ctx context.Context, username string) (*Principal, error)
	// Insert persists a new principal and returns its assigned id. A username
	// collision returns a client-safe BadRequest error and performs no write.
	Insert(ctx context.Context, p *Principal) (int64, error)
	// SetRole changes the role for the given principal.
	SetRole(ctx context.Context, id int64, role Role) error
	// SetPasswordHash replaces the stored credential for the given principal.
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}
