package principal

import (
	"context"
	"time"

	"github.com/cccteam/httpio"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
)

const name = "github.com/castlebar/fieldops/principal"

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// Queryer is the subset of pgxpool.Pool used by the Postgres store.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store against the Principals table.
type PostgresStore struct {
	conn Queryer
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(conn Queryer) *PostgresStore {
	return &PostgresStore{
		conn: conn,
	}
}

// Principal returns the record for the given id.
func (s *PostgresStore) Principal(ctx context.Context, id int64) (*Principal, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.Principal()")
	defer span.End()

	query := `
		SELECT
			"Id", "Username", "PasswordHash", "Role", "DisplayName", "Email", "Disabled", "CreatedAt"
		FROM "Principals"
		WHERE "Id" = $1
	`

	p := &Principal{}
	if err := pgxscan.Get(ctx, s.conn, p, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpio.NewNotFoundMessagef("principal %d not found", id)
		}

		return nil, errors.Wrapf(err, "failed to scan row for principal %d", id)
	}

	return p, nil
}

// PrincipalByUsername returns the record for the given username.
func (s *PostgresStore) PrincipalByUsername(ctx context.Context, username string) (*Principal, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.PrincipalByUsername()")
	defer span.End()

	query := `
		SELECT
			"Id", "Username", "PasswordHash", "Role", "DisplayName", "Email", "Disabled", "CreatedAt"
		FROM "Principals"
		WHERE "Username" = $1
	`

	p := &Principal{}
	if err := pgxscan.Get(ctx, s.conn, p, query, username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpio.NewNotFoundMessagef("principal %q not found", username)
		}

		return nil, errors.Wrapf(err, "failed to scan row for principal %q", username)
	}

	return p, nil
}

// Insert persists a new principal and returns its assigned id. The unique
// index on Username converts concurrent duplicate registrations into a
// client-safe conflict.
func (s *PostgresStore) Insert(ctx context.Context, p *Principal) (int64, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.Insert()")
	defer span.End()

	query := `
		INSERT INTO "Principals"
			("Username", "PasswordHash", "Role", "DisplayName", "Email", "Disabled", "CreatedAt")
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
		RETURNING "Id"
	`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	if err := pgxscan.Get(ctx, s.conn, &id, query,
		p.Username, p.PasswordHash, p.Role, p.DisplayName, p.Email, p.Disabled, createdAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, httpio.NewBadRequestMessagef("username %q is already taken", p.Username)
		}

		return 0, errors.Wrap(err, "failed to insert into table Principals")
	}

	return id, nil
}

// SetRole changes the role for the given principal.
func (s *PostgresStore) SetRole(ctx context.Context, id int64, role Role) error {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.SetRole()")
	defer span.End()

	query := `
		UPDATE "Principals" SET "Role" = $1
		WHERE "Id" = $2`

	res, err := s.conn.Exec(ctx, query, role, id)
	if err != nil {
		return errors.Wrapf(err, "failed to update Principals table for ID: %d", id)
	}

	if cnt := res.RowsAffected(); cnt != 1 {
		return httpio.NewNotFoundMessagef("principal %d not found", id)
	}

	return nil
}

// SetPasswordHash replaces the stored credential for the given principal.
func (s *PostgresStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.SetPasswordHash()")
	defer span.End()

	query := `
		UPDATE "Principals" SET "PasswordHash" = $1
		WHERE "Id" = $2`

	res, err := s.conn.Exec(ctx, query, hash, id)
	if err != nil {
		return errors.Wrapf(err, "failed to update Principals table for ID: %d", id)
	}

	if cnt := res.RowsAffected(); cnt != 1 {
		return httpio.NewNotFoundMessagef("principal %d not found", id)
	}

	return nil
}
