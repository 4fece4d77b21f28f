package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"schoolportal/internal/models"
	"schoolportal/internal/session"
)

// fakeUsers is an in-memory UserStore. Passwords are stored in clear as
// "plain:<password>" so CheckPassword stays trivial.
type fakeUsers struct {
	byEmail   map[string]*models.User
	lookupErr error
	enabled   bool
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byEmail: make(map[string]*models.User)}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.byEmail[email], nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	u, _ := f.FindByID(ctx, id)
	u.TOTPSecret = &secret
	return nil
}

func (f *fakeUsers) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	u, _ := f.FindByID(ctx, id)
	u.TOTPEnabled = true
	f.enabled = true
	return nil
}

func (f *fakeUsers) CheckPassword(u *models.User, password string) bool {
	return u.PasswordHash == "plain:"+password
}

func testUser(enrolled bool) *models.User {
	u := &models.User{
		ID:           uuid.New(),
		Email:        "lan@school.test",
		PasswordHash: "plain:secret123",
		DisplayName:  "Cô Lan",
		Role:         models.RoleEditor,
	}
	if enrolled {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: totpIssuer, AccountName: u.Email})
		if err != nil {
			panic(err)
		}
		secret := key.Secret()
		u.TOTPSecret = &secret
		u.TOTPEnabled = true
	}
	return u
}

func sessionFor(u *models.User) *session.Data {
	return &session.Data{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	a := NewAuth(newTestRenderer(t), &fakeSessions{}, newFakeUsers())

	r := withSession(httptest.NewRequest(http.MethodGet, "/admin/login", nil), adminSession())
	w := httptest.NewRecorder()
	a.LoginPage(w, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin" {
		t.Errorf("got %d → %q, want 303 → /admin", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginSubmit(t *testing.T) {
	tests := []struct {
		name         string
		user         *models.User
		lookupErr    error
		email        string
		password     string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name: "unknown email", user: testUser(false),
			email: "nobody@school.test", password: "secret123",
			wantStatus: http.StatusUnauthorized, wantBody: "Email hoặc mật khẩu không đúng.",
		},
		{
			name: "wrong password", user: testUser(false),
			email: "lan@school.test", password: "nope",
			wantStatus: http.StatusUnauthorized, wantBody: "Email hoặc mật khẩu không đúng.",
		},
		{
			name: "lookup failure", user: testUser(false), lookupErr: errDown,
			email: "lan@school.test", password: "secret123",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "first sign in goes to setup", user: testUser(false),
			email: " LAN@school.test ", password: "secret123",
			wantStatus: http.StatusSeeOther, wantLocation: "/admin/2fa/setup",
		},
		{
			name: "enrolled user goes to verify", user: testUser(true),
			email: "lan@school.test", password: "secret123",
			wantStatus: http.StatusSeeOther, wantLocation: "/admin/2fa/verify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUsers(tt.user)
			users.lookupErr = tt.lookupErr
			sessions := &fakeSessions{}
			a := NewAuth(newTestRenderer(t), sessions, users)

			w := httptest.NewRecorder()
			a.LoginSubmit(w, postForm("/admin/login", url.Values{"email": {tt.email}, "password": {tt.password}}))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if loc := w.Header().Get("Location"); loc != tt.wantLocation {
					t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
				}
				if sessions.created == nil || sessions.created.TwoFADone {
					t.Errorf("session = %+v, want one pending 2FA", sessions.created)
				}
			} else if sessions.created != nil {
				t.Error("session created for a failed login")
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func TestTwoFASetupPage(t *testing.T) {
	u := testUser(false)
	users := newFakeUsers(u)
	a := NewAuth(newTestRenderer(t), &fakeSessions{}, users)

	t.Run("without session", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.TwoFASetupPage(w, httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil))
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin/login" {
			t.Errorf("got %d → %q", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("enrolled user is sent to verify", func(t *testing.T) {
		enrolled := testUser(true)
		enrolled.Email = "binh@school.test"
		users.byEmail[enrolled.Email] = enrolled
		before := *enrolled.TOTPSecret

		w := httptest.NewRecorder()
		a.TwoFASetupPage(w, withSession(httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil), sessionFor(enrolled)))
		if w.Header().Get("Location") != "/admin/2fa/verify" {
			t.Errorf("Location = %q, want /admin/2fa/verify", w.Header().Get("Location"))
		}
		if *enrolled.TOTPSecret != before {
			t.Error("secret of an enrolled user was replaced")
		}
	})

	t.Run("stores a new secret", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.TwoFASetupPage(w, withSession(httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil), sessionFor(u)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if u.TOTPSecret == nil {
			t.Fatal("secret not stored")
		}
		if !strings.Contains(w.Body.String(), *u.TOTPSecret) {
			t.Error("page does not show the secret for manual entry")
		}
		if !strings.Contains(w.Body.String(), "data:image/png;base64,") {
			t.Error("page does not embed the QR code")
		}
	})
}

func TestTwoFAVerifySubmit(t *testing.T) {
	validCode := func(u *models.User) string {
		code, err := totp.GenerateCode(*u.TOTPSecret, time.Now())
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		return code
	}

	t.Run("valid code completes sign in", func(t *testing.T) {
		u := testUser(true)
		sessions := &fakeSessions{}
		a := NewAuth(newTestRenderer(t), sessions, newFakeUsers(u))

		w := httptest.NewRecorder()
		a.TwoFAVerifySubmit(w, withSession(postForm("/admin/2fa/verify", url.Values{"code": {validCode(u)}}), sessionFor(u)))

		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin" {
			t.Fatalf("got %d → %q", w.Code, w.Header().Get("Location"))
		}
		if sessions.updated == nil || !sessions.updated.TwoFADone {
			t.Error("session not marked as 2FA done")
		}
	})

	t.Run("first valid code enables totp", func(t *testing.T) {
		u := testUser(true)
		u.TOTPEnabled = false
		users := newFakeUsers(u)
		a := NewAuth(newTestRenderer(t), &fakeSessions{}, users)

		w := httptest.NewRecorder()
		a.TwoFAVerifySubmit(w, withSession(postForm("/admin/2fa/verify", url.Values{"code": {validCode(u)}}), sessionFor(u)))

		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", w.Code)
		}
		if !users.enabled {
			t.Error("EnableTOTP not called")
		}
	})

	t.Run("invalid code on verify page", func(t *testing.T) {
		u := testUser(true)
		sessions := &fakeSessions{}
		a := NewAuth(newTestRenderer(t), sessions, newFakeUsers(u))

		w := httptest.NewRecorder()
		a.TwoFAVerifySubmit(w, withSession(postForm("/admin/2fa/verify", url.Values{"code": {"000000x"}}), sessionFor(u)))

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Mã xác thực không đúng") {
			t.Error("missing error message")
		}
		if sessions.updated != nil {
			t.Error("session updated on invalid code")
		}
	})

	t.Run("invalid code during setup shows the qr again", func(t *testing.T) {
		u := testUser(true)
		u.TOTPEnabled = false
		a := NewAuth(newTestRenderer(t), &fakeSessions{}, newFakeUsers(u))

		w := httptest.NewRecorder()
		a.TwoFAVerifySubmit(w, withSession(postForm("/admin/2fa/verify", url.Values{"code": {"bad"}}), sessionFor(u)))

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		if !strings.Contains(w.Body.String(), "data:image/png;base64,") {
			t.Error("setup page should embed the QR code again")
		}
	})

	t.Run("no secret yet", func(t *testing.T) {
		u := testUser(false)
		a := NewAuth(newTestRenderer(t), &fakeSessions{}, newFakeUsers(u))

		w := httptest.NewRecorder()
		a.TwoFAVerifySubmit(w, withSession(postForm("/admin/2fa/verify", url.Values{"code": {"123456"}}), sessionFor(u)))

		if w.Header().Get("Location") != "/admin/2fa/setup" {
			t.Errorf("Location = %q, want /admin/2fa/setup", w.Header().Get("Location"))
		}
	})
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessions{}
	a := NewAuth(newTestRenderer(t), sessions, newFakeUsers())

	w := httptest.NewRecorder()
	a.Logout(w, withSession(postForm("/admin/logout", nil), adminSession()))

	if !sessions.destroyed {
		t.Error("session not destroyed")
	}
	if w.Header().Get("Location") != "/admin/login" {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}
}

func TestOTPAuthURL(t *testing.T) {
	got := otpauthURL("lan@school.test", "JBSWY3DPEHPK3PXP")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse %q: %v", got, err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" {
		t.Errorf("scheme/host = %s/%s", u.Scheme, u.Host)
	}
	if u.Path != "/SchoolPortal:lan@school.test" {
		t.Errorf("path = %q", u.Path)
	}
	if q := u.Query(); q.Get("secret") != "JBSWY3DPEHPK3PXP" || q.Get("issuer") != "SchoolPortal" {
		t.Errorf("query = %v", q)
	}
}
