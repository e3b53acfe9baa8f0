package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/castlebar/fieldops/auth/credential"
	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"go.opentelemetry.io/otel"
)

// userResponse is the client-facing view of a Principal. The stored
// credential never leaves the server.
type userResponse struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	Role        principal.Role `json:"role"`
	DisplayName string         `json:"displayName"`
	Email       string         `json:"email,omitempty"`
}

func newUserResponse(p *principal.Principal) userResponse {
	return userResponse{
		ID:          p.ID,
		Username:    p.Username,
		Role:        p.Role,
		DisplayName: p.DisplayName,
		Email:       p.Email,
	}
}

// Login authenticates a username/password pair and establishes the session
// cookie. The rememberMe flag selects the long-lived session TTL; the choice
// is made once, here, and never renegotiated.
func (a *App) Login() http.HandlerFunc {
	type request struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	type response struct {
		Authenticated bool         `json:"authenticated"`
		User          userResponse `json:"user"`
	}

	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.Login()")
		defer span.End()

		payload := &request{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid request body")
		}

		payload.Username = strings.TrimSpace(payload.Username)
		if payload.Username == "" || payload.Password == "" {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "username and password are required")
		}

		p, err := a.authenticate(ctx, payload.Username, payload.Password)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		sessionID, err := a.startNewSession(ctx, w, r, p.ID, payload.RememberMe)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		// Log the association between the sessionID and Username
		logger.Req(r).AddRequestAttribute("username", p.Username)
		logger.Req(r).AddRequestAttribute(scSessionID.String(), sessionID.String())

		return httpio.NewEncoder(w).Ok(response{Authenticated: true, User: newUserResponse(p)})
	})
}

// authenticate resolves the principal by username and verifies the password.
// Unknown usernames, wrong passwords, and disabled accounts all return the
// same unauthorized message so a caller cannot probe for accounts, and the
// unknown-username path burns a dummy derivation to keep its timing in line
// with the wrong-password path.
func (a *App) authenticate(ctx context.Context, username, password string) (*principal.Principal, error) {
	ctx, span := otel.Tracer(name).Start(ctx, "App.authenticate()")
	defer span.End()

	p, err := a.principals.PrincipalByUsername(ctx, username)
	if err != nil {
		if httpio.HasNotFound(err) || httpio.HasUnauthorized(err) {
			credential.DummyVerify(password)

			return nil, httpio.NewUnauthorizedMessageWithError(err, "invalid username or password")
		}

		return nil, errors.Wrap(err, "principal.Store.PrincipalByUsername()")
	}

	if !credential.Verify(password, p.PasswordHash) {
		return nil, httpio.NewUnauthorizedMessage("invalid username or password")
	}

	if p.Disabled {
		return nil, httpio.NewUnauthorizedMessage("invalid username or password")
	}

	return p, nil
}

// startNewSession mints a session with the TTL selected by rememberMe and
// writes the auth and XSRF cookies.
func (a *App) startNewSession(ctx context.Context, w http.ResponseWriter, r *http.Request, principalID int64, rememberMe bool) (uuid.UUID, error) {
	ttl := a.sessionTTL
	if rememberMe {
		ttl = a.rememberMeTTL
	}

	sessionID, err := a.sessions.NewSession(ctx, principalID, ttl)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "sessionstore.Store.NewSession()")
	}

	if _, err := a.cookies.newAuthCookie(w, sessionID, ttl); err != nil {
		return uuid.Nil, errors.Wrap(err, "cookieClient.newAuthCookie()")
	}

	// write new XSRF Token Cookie to match the new SessionID
	a.cookies.setXSRFTokenCookie(w, r, sessionID, xsrfCookieLife)

	return sessionID, nil
}

// Logout destroys the current session and clears the cookie. Logging out
// without a session is not an error.
func (a *App) Logout() http.HandlerFunc {
	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.Logout()")
		defer span.End()

		if sessionID, ok := sessionIDFromRequest(r); ok {
			if err := a.sessions.DestroySession(ctx, sessionID); err != nil {
				return httpio.NewEncoder(w).ClientMessage(ctx, err)
			}
		}

		a.cookies.clearAuthCookie(w)

		return httpio.NewEncoder(w).Ok(nil)
	})
}

// CurrentUser reports the Principal attached to the request.
func (a *App) CurrentUser() http.HandlerFunc {
	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.CurrentUser()")
		defer span.End()

		p, ok := sessioninfo.Lookup(ctx)
		if !ok {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewUnauthorizedMessage("not authenticated"))
		}

		return httpio.NewEncoder(w).Ok(newUserResponse(p))
	})
}

// ChangePassword re-verifies the current password and replaces the stored
// credential. It sits behind RequireAuthenticated.
func (a *App) ChangePassword() http.HandlerFunc {
	type request struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}

	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.ChangePassword()")
		defer span.End()

		p := sessioninfo.FromCtx(ctx)

		payload := &request{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid request body")
		}

		if !credential.Verify(payload.OldPassword, p.PasswordHash) {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewBadRequestMessage("old password incorrect"))
		}

		if err := validatePassword(payload.NewPassword); err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		hash, err := credential.Hash(payload.NewPassword)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, errors.Wrap(err, "credential.Hash()"))
		}

		if err := a.principals.SetPasswordHash(ctx, p.ID, hash); err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, errors.Wrap(err, "principal.Store.SetPasswordHash()"))
		}

		return httpio.NewEncoder(w).Ok(nil)
	})
}
