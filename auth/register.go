package auth

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/castlebar/fieldops/auth/credential"
	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/errors/v5"
	"go.opentelemetry.io/otel"
)

// minPasswordLength is the minimum accepted password length at registration
// and password change.
const minPasswordLength = 8

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return httpio.NewBadRequestMessagef("password must be at least %d characters", minPasswordLength)
	}

	return nil
}

// Register creates a new customer account and logs it in. Registration
// success implies authentication: the session cookie is set in the same
// response with no second credential check.
func (a *App) Register() http.HandlerFunc {
	type request struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		DisplayName     string `json:"displayName"`
		Email           string `json:"email"`
	}
	type response struct {
		Authenticated bool         `json:"authenticated"`
		User          userResponse `json:"user"`
	}

	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.Register()")
		defer span.End()

		payload := &request{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid request body")
		}

		payload.Username = strings.TrimSpace(payload.Username)
		if payload.Username == "" || payload.Password == "" {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "username and password are required")
		}
		if payload.Password != payload.ConfirmPassword {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "passwords do not match")
		}
		if err := validatePassword(payload.Password); err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		hash, err := credential.Hash(payload.Password)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, errors.Wrap(err, "credential.Hash()"))
		}

		p := &principal.Principal{
			Username:     payload.Username,
			PasswordHash: hash,
			Role:         principal.RoleCustomer,
			DisplayName:  payload.DisplayName,
			Email:        payload.Email,
		}

		id, err := a.principals.Insert(ctx, p)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}
		p.ID = id

		sessionID, err := a.startNewSession(ctx, w, r, p.ID, false)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		logger.Req(r).AddRequestAttribute("username", p.Username)
		logger.Req(r).AddRequestAttribute(scSessionID.String(), sessionID.String())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(response{Authenticated: true, User: newUserResponse(p)}); err != nil {
			return errors.Wrap(err, "json.Encoder.Encode()")
		}

		return nil
	})
}

// SetUserRole is the administrative role-change action. It sits behind
// RequireAdmin; the role takes effect on the target's next request because
// sessions carry only the principal id.
func (a *App) SetUserRole() http.HandlerFunc {
	type request struct {
		Role string `json:"role"`
	}

	return a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "App.SetUserRole()")
		defer span.End()

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid user id")
		}

		payload := &request{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid request body")
		}

		role, err := principal.ParseRole(payload.Role)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewBadRequestMessageWithError(err, "invalid role"))
		}

		if id == sessioninfo.FromCtx(ctx).ID {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewBadRequestMessage("cannot change your own role"))
		}

		if err := a.principals.SetRole(ctx, id, role); err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		return httpio.NewEncoder(w).Ok(nil)
	})
}
