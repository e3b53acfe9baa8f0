package sessionstore

import (
	"context"
	"time"

	"github.com/cccteam/httpio"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
)

const name = "github.com/castlebar/fieldops/sessionstore"

// Queryer is the subset of pgxpool.Pool used by the Postgres store.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store against the Sessions table. Expiry is
// evaluated in SQL so that expired rows are indistinguishable from absent
// rows; the sweep that removes them is a plain DELETE.
type PostgresStore struct {
	conn Queryer
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(conn Queryer) *PostgresStore {
	return &PostgresStore{
		conn: conn,
	}
}

// sessionRow mirrors the Sessions table.
type sessionRow struct {
	ID          uuid.UUID `db:"Id"`
	PrincipalID int64     `db:"PrincipalId"`
	TTLSeconds  int64     `db:"TtlSeconds"`
	CreatedAt   time.Time `db:"CreatedAt"`
	UpdatedAt   time.Time `db:"UpdatedAt"`
	ExpiresAt   time.Time `db:"ExpiresAt"`
}

// NewSession mints an unguessable session id for the principal.
func (s *PostgresStore) NewSession(ctx context.Context, principalID int64, ttl time.Duration) (uuid.UUID, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.NewSession()")
	defer span.End()

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "uuid.NewV4()")
	}

	now := time.Now()
	query := `
		INSERT INTO "Sessions"
			("Id", "PrincipalId", "TtlSeconds", "CreatedAt", "UpdatedAt", "ExpiresAt")
		VALUES
			($1, $2, $3, $4, $4, $5)
		`

	if _, err := s.conn.Exec(ctx, query, id, principalID, int64(ttl.Seconds()), now, now.Add(ttl)); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to insert into table Sessions")
	}

	return id, nil
}

// Session returns the record for the given id, treating expired rows as
// absent.
func (s *PostgresStore) Session(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.Session()")
	defer span.End()

	query := `
		SELECT
			"Id", "PrincipalId", "TtlSeconds", "CreatedAt", "UpdatedAt", "ExpiresAt"
		FROM "Sessions"
		WHERE "Id" = $1 AND "ExpiresAt" > $2
	`

	row := &sessionRow{}
	if err := pgxscan.Get(ctx, s.conn, row, query, sessionID, time.Now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpio.NewNotFoundMessagef("session %s not found", sessionID)
		}

		return nil, errors.Wrapf(err, "failed to scan row for session %s", sessionID)
	}

	return &Session{
		ID:          row.ID,
		PrincipalID: row.PrincipalID,
		TTL:         time.Duration(row.TTLSeconds) * time.Second,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

// UpdateSessionActivity slides the session expiry forward by its own TTL.
func (s *PostgresStore) UpdateSessionActivity(ctx context.Context, sessionID uuid.UUID) error {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.UpdateSessionActivity()")
	defer span.End()

	query := `
		UPDATE "Sessions"
		SET "UpdatedAt" = $1, "ExpiresAt" = $1 + ("TtlSeconds" * interval '1 second')
		WHERE "Id" = $2 AND "ExpiresAt" > $1`

	res, err := s.conn.Exec(ctx, query, time.Now(), sessionID)
	if err != nil {
		return errors.Wrapf(err, "failed to update Sessions table for ID: %s", sessionID)
	}

	if cnt := res.RowsAffected(); cnt != 1 {
		return httpio.NewNotFoundMessagef("session %s not found", sessionID)
	}

	return nil
}

// DestroySession removes the session. Idempotent.
func (s *PostgresStore) DestroySession(ctx context.Context, sessionID uuid.UUID) error {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.DestroySession()")
	defer span.End()

	query := `
		DELETE FROM "Sessions"
		WHERE "Id" = $1`

	if _, err := s.conn.Exec(ctx, query, sessionID); err != nil {
		return errors.Wrapf(err, "failed to delete from Sessions table for %s", sessionID)
	}

	return nil
}

// Sweep removes expired sessions and returns how many were deleted.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "PostgresStore.Sweep()")
	defer span.End()

	query := `
		DELETE FROM "Sessions"
		WHERE "ExpiresAt" <= $1`

	res, err := s.conn.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to sweep Sessions table")
	}

	return res.RowsAffected(), nil
}
