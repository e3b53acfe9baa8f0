package auth

import (
	"context"
	"net/http"

	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"go.opentelemetry.io/otel"
)

// Attach resolves the session cookie into a Principal and stores it in the
// request context. Requests without a usable session proceed with no
// Principal attached; unknown and expired sessions are indistinguishable.
// The Principal is re-fetched from its store on every request so role changes
// take effect without a logout.
func (a *App) Attach(next http.Handler) http.Handler {
	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.Attach()")
		defer span.End()

		ctx, err := a.attachAPI(ctx, r)
		if err == nil {
			if p, ok := sessioninfo.Lookup(ctx); ok {
				// Add user to logging context
				logger.Req(r).AddRequestAttribute("username", p.Username)
				l := logger.Req(r).WithAttributes().AddAttribute("username", p.Username).Logger()
				ctx = logger.NewCtx(ctx, l)
			}
		}
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		next.ServeHTTP(w, r.WithContext(ctx))

		return nil
	})
}

// attachAPI resolves the session for a single request. A nil error with no
// Principal in the returned context means the request is unauthenticated.
func (a *App) attachAPI(ctx context.Context, r *http.Request) (context.Context, error) {
	cookieValue, ok := a.cookies.readAuthCookie(r)
	if !ok {
		return ctx, nil
	}

	sessionID, ok := validSessionID(cookieValue[scSessionID])
	if !ok {
		return ctx, nil
	}

	// Store sessionID in context
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)

	sess, err := a.sessions.Session(ctx, sessionID)
	if err != nil {
		if httpio.HasNotFound(err) {
			return ctx, nil
		}

		return ctx, errors.Wrap(err, "sessionstore.Store.Session()")
	}

	// Renew activity; a session destroyed between lookup and renewal is
	// treated as absent, same as any other race on the same cookie.
	if err := a.sessions.UpdateSessionActivity(ctx, sess.ID); err != nil {
		if httpio.HasNotFound(err) {
			return ctx, nil
		}

		return ctx, errors.Wrap(err, "sessionstore.Store.UpdateSessionActivity()")
	}

	p, err := a.principals.Principal(ctx, sess.PrincipalID)
	if err != nil {
		if httpio.HasNotFound(err) {
			return ctx, nil
		}

		return ctx, errors.Wrap(err, "principal.Store.Principal()")
	}

	if p.Disabled {
		return ctx, nil
	}

	return sessioninfo.WithPrincipal(ctx, p), nil
}

// RequireAuthenticated denies the request with a 401 when no Principal is
// attached.
func (a *App) RequireAuthenticated(next http.Handler) http.Handler {
	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		if _, ok := sessioninfo.Lookup(r.Context()); !ok {
			return httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewUnauthorizedMessage("not authenticated"))
		}

		next.ServeHTTP(w, r)

		return nil
	})
}

// RequireRole denies with a 401 when no Principal is attached, and with a
// 403 when the attached Principal's role is not in the allowed set. The
// closed role enumeration keeps these checks exhaustive.
func (a *App) RequireRole(roles ...principal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.handle(func(w http.ResponseWriter, r *http.Request) error {
			p, ok := sessioninfo.Lookup(r.Context())
			if !ok {
				return httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewUnauthorizedMessage("not authenticated"))
			}

			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)

					return nil
				}
			}

			return httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewForbiddenMessage("access denied"))
		})
	}
}

// RequireAdmin allows only administrators.
func (a *App) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireRole(principal.RoleAdmin)(next)
}

// RequireTechnician allows technicians and administrators.
func (a *App) RequireTechnician(next http.Handler) http.Handler {
	return a.RequireRole(principal.RoleTechnician, principal.RoleAdmin)(next)
}
