// Package server wires the configuration, stores, and HTTP surface into a
// running fieldops server.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castlebar/fieldops/auth"
	"github.com/castlebar/fieldops/internal/config"
	"github.com/castlebar/fieldops/migrations"
	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessionstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const shutdownTimeout = 10 * time.Second

// Run starts the server and blocks until the context is canceled or a
// termination signal arrives.
func Run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	principals, sessions, sweep, err := newStores(ctx, cfg)
	if err != nil {
		return err
	}
	go sweep(ctx)

	hashKey, blockKey, err := cfg.SessionKeys()
	if err != nil {
		return err
	}

	app := auth.New(principals, sessions, securecookie.New(hashKey, blockKey),
		auth.WithSecureCookies(cfg.SecureCookies),
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithRememberMeTTL(cfg.RememberMeTTL),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routes(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", string(cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "http.Server.ListenAndServe()")
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http.Server.Shutdown()")
	}

	return nil
}

// routes lays out the HTTP surface. Everything passes through Attach so any
// handler can see the current Principal; the XSRF pair protects the
// cookie-authenticated unsafe methods.
func routes(app *auth.App) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(app.Attach)
	router.Use(app.SetXSRFToken)
	router.Use(app.ValidateXSRFToken)

	router.Route("/api", func(r chi.Router) {
		r.Post("/register", app.Register())
		r.Post("/login", app.Login())
		r.Post("/logout", app.Logout())
		r.Get("/user", app.CurrentUser())
		r.With(app.RequireAuthenticated).Post("/user/password", app.ChangePassword())
		r.With(app.RequireAdmin).Patch("/users/{id}/role", app.SetUserRole())
	})

	return router
}

// newStores selects the storage backend from the configuration: an empty DSN
// gives process-local in-memory stores, anything else is PostgreSQL with the
// embedded migrations applied first. The returned sweep func removes expired
// sessions for the lifetime of the context.
func newStores(ctx context.Context, cfg *config.Config) (principal.Store, sessionstore.Store, func(context.Context), error) {
	if cfg.DatabaseDSN == "" {
		sessions := sessionstore.NewMemoryStore(sessionstore.WithSweepInterval(cfg.SweepInterval))

		return principal.NewMemoryStore(), sessions, sessions.Run, nil
	}

	if err := migrate(ctx, cfg.DatabaseDSN); err != nil {
		return nil, nil, nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "pgxpool.New()")
	}

	sessions := sessionstore.NewPostgresStore(pool)
	sweep := func(ctx context.Context) {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sessions.Sweep(ctx); err != nil && ctx.Err() == nil {
					slog.Error("session sweep failed", "error", err)
				}
			}
		}
	}

	return principal.NewPostgresStore(pool), sessions, sweep, nil
}

// migrate applies the embedded goose migrations over a short-lived
// database/sql connection; the pgx pool used for serving is opened after.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return errors.Wrap(err, "sql.Open()")
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return errors.Wrap(err, "goose.SetDialect()")
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "goose.UpContext()")
	}

	return nil
}
