package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/castlebar/fieldops/auth/credential"
	"github.com/castlebar/fieldops/mock/mock_principal"
	"github.com/castlebar/fieldops/mock/mock_sessionstore"
	"github.com/castlebar/fieldops/principal"
	"github.com/castlebar/fieldops/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/go-playground/errors/v5"
	"github.com/gofrs/uuid"
	"go.uber.org/mock/gomock"
)

// passthroughHandle runs handlers without logging, swallowing the returned
// error the way the production LogHandler does after the response is written.
func passthroughHandle(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = handler(w, r)
	}
}

func newTestApp(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, c *MockcookieManager) *App {
	return &App{
		principals:    p,
		sessions:      s,
		cookies:       c,
		handle:        passthroughHandle,
		sessionTTL:    defaultSessionTTL,
		rememberMeTTL: defaultRememberMeTTL,
	}
}

func TestAppLogin(t *testing.T) {
	t.Parallel()

	hash, err := credential.Hash("S3cret-pass")
	if err != nil {
		t.Fatalf("credential.Hash() = %v", err)
	}
	sessionID := uuid.Must(uuid.NewV4())

	type test struct {
		name       string
		body       string
		prepare    func(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, c *MockcookieManager)
		wantStatus int
		wantUser   string
	}
	tests := []test{
		{
			name:       "fails on invalid body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fails on missing username",
			body:       `{"password":"S3cret-pass"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fails on missing password",
			body:       `{"username":"gopher"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "fails on unknown username",
			body: `{"username":"nobody","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, _ *mock_sessionstore.MockStore, _ *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "nobody").Return(nil, httpio.NewNotFoundMessagef("principal %q not found", "nobody"))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "fails on wrong password",
			body: `{"username":"gopher","password":"not-the-password"}`,
			prepare: func(p *mock_principal.MockStore, _ *mock_sessionstore.MockStore, _ *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "fails on disabled account",
			body: `{"username":"gopher","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, _ *mock_sessionstore.MockStore, _ *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer, Disabled: true}, nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "fails on principal store error",
			body: `{"username":"gopher","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, _ *mock_sessionstore.MockStore, _ *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").Return(nil, errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "fails on session store error",
			body: `{"username":"gopher","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, _ *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)
				s.EXPECT().NewSession(gomock.Any(), int64(7), defaultSessionTTL).Return(uuid.Nil, errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "fails on cookie write error",
			body: `{"username":"gopher","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, c *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)
				s.EXPECT().NewSession(gomock.Any(), int64(7), defaultSessionTTL).Return(sessionID, nil)
				c.EXPECT().newAuthCookie(gomock.Any(), sessionID, defaultSessionTTL).Return(nil, errors.New("encode failed"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "success",
			body: `{"username":"gopher","password":"S3cret-pass"}`,
			prepare: func(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, c *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)
				s.EXPECT().NewSession(gomock.Any(), int64(7), defaultSessionTTL).Return(sessionID, nil)
				c.EXPECT().newAuthCookie(gomock.Any(), sessionID, defaultSessionTTL).Return(map[scKey]string{scSessionID: sessionID.String()}, nil)
				c.EXPECT().setXSRFTokenCookie(gomock.Any(), gomock.Any(), sessionID, xsrfCookieLife).Return(true)
			},
			wantStatus: http.StatusOK,
			wantUser:   "gopher",
		},
		{
			name: "success with rememberMe",
			body: `{"username":"gopher","password":"S3cret-pass","rememberMe":true}`,
			prepare: func(p *mock_principal.MockStore, s *mock_sessionstore.MockStore, c *MockcookieManager) {
				p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
					Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)
				s.EXPECT().NewSession(gomock.Any(), int64(7), defaultRememberMeTTL).Return(sessionID, nil)
				c.EXPECT().newAuthCookie(gomock.Any(), sessionID, defaultRememberMeTTL).Return(map[scKey]string{scSessionID: sessionID.String()}, nil)
				c.EXPECT().setXSRFTokenCookie(gomock.Any(), gomock.Any(), sessionID, xsrfCookieLife).Return(true)
			},
			wantStatus: http.StatusOK,
			wantUser:   "gopher",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			p := mock_principal.NewMockStore(ctrl)
			s := mock_sessionstore.NewMockStore(ctrl)
			c := NewMockcookieManager(ctrl)
			if tt.prepare != nil {
				tt.prepare(p, s, c)
			}

			a := newTestApp(p, s, c)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			a.Login().ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Fatalf("App.Login() status = %v, want %v (body %q)", got, tt.wantStatus, w.Body.String())
			}
			if tt.wantUser != "" {
				var resp struct {
					Authenticated bool         `json:"authenticated"`
					User          userResponse `json:"user"`
				}
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("json.Decoder.Decode() = %v", err)
				}
				if !resp.Authenticated {
					t.Error("App.Login() authenticated = false, want true")
				}
				if resp.User.Username != tt.wantUser {
					t.Errorf("App.Login() user = %q, want %q", resp.User.Username, tt.wantUser)
				}
			}
		})
	}
}

func TestAppLoginIndistinguishableFailures(t *testing.T) {
	t.Parallel()

	hash, err := credential.Hash("S3cret-pass")
	if err != nil {
		t.Fatalf("credential.Hash() = %v", err)
	}

	ctrl := gomock.NewController(t)
	p := mock_principal.NewMockStore(ctrl)
	p.EXPECT().PrincipalByUsername(gomock.Any(), "nobody").Return(nil, httpio.NewNotFoundMessagef("principal %q not found", "nobody"))
	p.EXPECT().PrincipalByUsername(gomock.Any(), "gopher").
		Return(&principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}, nil)

	a := newTestApp(p, mock_sessionstore.NewMockStore(ctrl), NewMockcookieManager(ctrl))

	unknownUser := httptest.NewRecorder()
	a.Login().ServeHTTP(unknownUser, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"nobody","password":"S3cret-pass"}`)))

	wrongPassword := httptest.NewRecorder()
	a.Login().ServeHTTP(wrongPassword, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"gopher","password":"not-the-password"}`)))

	if unknownUser.Code != http.StatusUnauthorized || wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("status = %v, %v, want both %v", unknownUser.Code, wrongPassword.Code, http.StatusUnauthorized)
	}
	if unknownUser.Body.String() != wrongPassword.Body.String() {
		t.Errorf("unknown-username and wrong-password responses differ: %q vs %q", unknownUser.Body.String(), wrongPassword.Body.String())
	}
}

func TestAppLogout(t *testing.T) {
	t.Parallel()

	sessionID := uuid.Must(uuid.NewV4())

	type test struct {
		name       string
		withSessID bool
		prepare    func(s *mock_sessionstore.MockStore, c *MockcookieManager)
		wantStatus int
	}
	tests := []test{
		{
			name:       "success with active session",
			withSessID: true,
			prepare: func(s *mock_sessionstore.MockStore, c *MockcookieManager) {
				s.EXPECT().DestroySession(gomock.Any(), sessionID).Return(nil)
				c.EXPECT().clearAuthCookie(gomock.Any())
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "success without session",
			prepare: func(_ *mock_sessionstore.MockStore, c *MockcookieManager) {
				c.EXPECT().clearAuthCookie(gomock.Any())
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "fails on session store error",
			withSessID: true,
			prepare: func(s *mock_sessionstore.MockStore, _ *MockcookieManager) {
				s.EXPECT().DestroySession(gomock.Any(), sessionID).Return(errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			s := mock_sessionstore.NewMockStore(ctrl)
			c := NewMockcookieManager(ctrl)
			if tt.prepare != nil {
				tt.prepare(s, c)
			}

			a := newTestApp(mock_principal.NewMockStore(ctrl), s, c)

			r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
			if tt.withSessID {
				r = r.WithContext(context.WithValue(r.Context(), ctxSessionID, sessionID))
			}

			w := httptest.NewRecorder()
			a.Logout().ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("App.Logout() status = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestAppCurrentUser(t *testing.T) {
	t.Parallel()

	type test struct {
		name       string
		principal  *principal.Principal
		wantStatus int
	}
	tests := []test{
		{
			name:       "success",
			principal:  &principal.Principal{ID: 7, Username: "gopher", Role: principal.RoleTechnician, DisplayName: "Gopher"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "fails when not authenticated",
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			a := newTestApp(mock_principal.NewMockStore(ctrl), mock_sessionstore.NewMockStore(ctrl), NewMockcookieManager(ctrl))

			r := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.principal != nil {
				r = r.WithContext(sessioninfo.WithPrincipal(r.Context(), tt.principal))
			}

			w := httptest.NewRecorder()
			a.CurrentUser().ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Fatalf("App.CurrentUser() status = %v, want %v", got, tt.wantStatus)
			}
			if tt.principal != nil {
				var resp userResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("json.Decoder.Decode() = %v", err)
				}
				if resp.Username != tt.principal.Username || resp.Role != tt.principal.Role {
					t.Errorf("App.CurrentUser() = %+v, want user %q with role %q", resp, tt.principal.Username, tt.principal.Role)
				}
			}
		})
	}
}

func TestAppChangePassword(t *testing.T) {
	t.Parallel()

	hash, err := credential.Hash("old-password")
	if err != nil {
		t.Fatalf("credential.Hash() = %v", err)
	}

	type test struct {
		name       string
		body       string
		prepare    func(t *testing.T, p *mock_principal.MockStore)
		wantStatus int
	}
	tests := []test{
		{
			name:       "fails on invalid body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fails on wrong old password",
			body:       `{"oldPassword":"not-the-password","newPassword":"new-password"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fails on short new password",
			body:       `{"oldPassword":"old-password","newPassword":"short"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "fails on principal store error",
			body: `{"oldPassword":"old-password","newPassword":"new-password"}`,
			prepare: func(_ *testing.T, p *mock_principal.MockStore) {
				p.EXPECT().SetPasswordHash(gomock.Any(), int64(7), gomock.Any()).Return(errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "success",
			body: `{"oldPassword":"old-password","newPassword":"new-password"}`,
			prepare: func(t *testing.T, p *mock_principal.MockStore) {
				p.EXPECT().SetPasswordHash(gomock.Any(), int64(7), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ int64, newHash string) error {
						if !credential.Verify("new-password", newHash) {
							t.Error("stored hash does not verify against the new password")
						}

						return nil
					})
			},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			p := mock_principal.NewMockStore(ctrl)
			if tt.prepare != nil {
				tt.prepare(t, p)
			}

			a := newTestApp(p, mock_sessionstore.NewMockStore(ctrl), NewMockcookieManager(ctrl))

			r := httptest.NewRequest(http.MethodPost, "/api/user/password", strings.NewReader(tt.body))
			r = r.WithContext(sessioninfo.WithPrincipal(r.Context(), &principal.Principal{ID: 7, Username: "gopher", PasswordHash: hash, Role: principal.RoleCustomer}))

			w := httptest.NewRecorder()
			a.ChangePassword().ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("App.ChangePassword() status = %v, want %v (body %q)", got, tt.wantStatus, w.Body.String())
			}
		})
	}
}
