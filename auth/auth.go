// Package auth implements the authentication and authorization core: the
// login/registration handlers, the session middleware that resolves a cookie
// back into a Principal on every request, and the role gates protecting the
// business handlers behind it.
package auth

import (
	"net/http"
	"time"

	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessionstore"
	"github.com/gofrs/uuid"
	"github.com/gorilla/securecookie"
)

const name = "github.com/castlebar/fieldops/auth"

// ctxKey is a type for storing values in the request context
type ctxKey string

// ctxSessionID is the key used to store the session id in the request context.
const ctxSessionID ctxKey = "sessionID"

const (
	// defaultSessionTTL is the session lifetime without "remember me".
	defaultSessionTTL = 24 * time.Hour
	// defaultRememberMeTTL is the session lifetime with "remember me".
	defaultRememberMeTTL = 30 * 24 * time.Hour
)

// LogHandler defines the handler signature required for handling logs.
type LogHandler func(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc

// App wires the principal store, session store, and cookie handling into the
// HTTP auth surface. Construct with New.
type App struct {
	principals    principal.Store
	sessions      sessionstore.Store
	cookies       cookieManager
	cookieClient  *cookieClient
	handle        LogHandler
	sessionTTL    time.Duration
	rememberMeTTL time.Duration
}

// Option configures an App.
type Option func(*App)

// WithSessionTTL sets the default session lifetime. (default: 24h)
func WithSessionTTL(d time.Duration) Option {
	return func(a *App) {
		a.sessionTTL = d
	}
}

// WithRememberMeTTL sets the session lifetime selected by the rememberMe
// login flag. (default: 30 days)
func WithRememberMeTTL(d time.Duration) Option {
	return func(a *App) {
		a.rememberMeTTL = d
	}
}

// WithCookieName sets the session cookie name. (default: fieldops_session)
func WithCookieName(name string) Option {
	return func(a *App) {
		a.cookieClient.cookieName = name
	}
}

// WithSecureCookies controls the Secure cookie attribute. Disable only for
// plain-HTTP development. (default: enabled)
func WithSecureCookies(secure bool) Option {
	return func(a *App) {
		a.cookieClient.secure = secure
	}
}

// WithLogHandler sets the LogHandler. (default: logErrors)
func WithLogHandler(l LogHandler) Option {
	return func(a *App) {
		a.handle = l
	}
}

// New creates an App. The securecookie keys are the session-signing secret;
// they must be stable across restarts for sessions to survive them.
func New(principals principal.Store, sessions sessionstore.Store, secureCookie *securecookie.SecureCookie, options ...Option) *App {
	cookieClient := newCookieClient(secureCookie)

	a := &App{
		principals:    principals,
		sessions:      sessions,
		cookies:       cookieClient,
		cookieClient:  cookieClient,
		handle:        logErrors,
		sessionTTL:    defaultSessionTTL,
		rememberMeTTL: defaultRememberMeTTL,
	}

	for _, opt := range options {
		opt(a)
	}

	return a
}

func sessionIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(ctxSessionID).(uuid.UUID)

	return id, ok
}
