package auth

import (
	"net/http"
	"time"

	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"github.com/gorilla/securecookie"
)

// scKey is a type for storing values in the session cookie
type scKey string

func (c scKey) String() string {
	return string(c)
}

// scSessionID is the key for the session id within the secure cookie.
const scSessionID scKey = "sessionID"

// defaultCookieName is the session cookie name.
const defaultCookieName = "fieldops_session"

// Interface included for testability
type cookieManager interface {
	newAuthCookie(w http.ResponseWriter, sessionID uuid.UUID, maxAge time.Duration) (map[scKey]string, error)
	readAuthCookie(r *http.Request) (map[scKey]string, bool)
	writeAuthCookie(w http.ResponseWriter, cookieValue map[scKey]string, maxAge time.Duration) error
	clearAuthCookie(w http.ResponseWriter)
	setXSRFTokenCookie(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, cookieExpiration time.Duration) (set bool)
	hasValidXSRFToken(r *http.Request, sessionID uuid.UUID) bool
}

var _ cookieManager = &cookieClient{}

type cookieClient struct {
	secureCookie *securecookie.SecureCookie
	cookieName   string
	secure       bool
}

func newCookieClient(secureCookie *securecookie.SecureCookie) *cookieClient {
	return &cookieClient{
		secureCookie: secureCookie,
		cookieName:   defaultCookieName,
		secure:       true,
	}
}

func (c *cookieClient) newAuthCookie(w http.ResponseWriter, sessionID uuid.UUID, maxAge time.Duration) (map[scKey]string, error) {
	cookieValue := map[scKey]string{
		scSessionID: sessionID.String(),
	}

	if err := c.writeAuthCookie(w, cookieValue, maxAge); err != nil {
		return nil, errors.Wrap(err, "cookieClient.writeAuthCookie()")
	}

	return cookieValue, nil
}

func (c *cookieClient) readAuthCookie(r *http.Request) (map[scKey]string, bool) {
	cookieValue := make(map[scKey]string)

	cookie, err := r.Cookie(c.cookieName)
	if err != nil {
		return cookieValue, false
	}
	err = c.secureCookie.Decode(c.cookieName, cookie.Value, &cookieValue)
	if err != nil {
		logger.Req(r).Error(errors.Wrap(err, "secureCookie.Decode()"))

		return cookieValue, false
	}

	return cookieValue, true
}

func (c *cookieClient) writeAuthCookie(w http.ResponseWriter, cookieValue map[scKey]string, maxAge time.Duration) error {
	encoded, err := c.secureCookie.Encode(c.cookieName, cookieValue)
	if err != nil {
		return errors.Wrap(err, "securecookie.Encode()")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	return nil
}

func (c *cookieClient) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// validSessionID checks that the sessionID is a valid uuid
func validSessionID(sessionID string) (uuid.UUID, bool) {
	id, err := uuid.FromString(sessionID)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
