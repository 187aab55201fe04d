// AngelaMos | 2026
// service_test.go

package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/citylistings/internal/auth"
	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/mailer"
)

type storedUser struct {
	info         auth.UserInfo
	resetHash    string
	resetExpires time.Time
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*storedUser
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*storedUser{}}
}

func (f *fakeUsers) byEmail(email string) *storedUser {
	for _, u := range f.users {
		if u.info.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byEmail(email)
	if u == nil {
		return nil, core.ErrNotFound
	}
	info := u.info
	return &info, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	info := u.info
	return &info, nil
}

func (f *fakeUsers) Create(
	_ context.Context,
	email, displayName, passwordHash, passwordSalt string,
) (*auth.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.byEmail(email) != nil {
		return nil, core.ErrDuplicateKey
	}
	u := &storedUser{info: auth.UserInfo{
		ID:           core.NewID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
		Role:         "user",
	}}
	f.users[u.info.ID] = u
	info := u.info
	return &info, nil
}

func (f *fakeUsers) SetPassword(_ context.Context, userID, passwordHash, passwordSalt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.info.PasswordHash, u.info.PasswordSalt = passwordHash, passwordSalt
	u.info.TokenVersion++
	return nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.resetHash, u.resetExpires = tokenHash, expiresAt
	return nil
}

func (f *fakeUsers) ConsumeResetToken(
	_ context.Context,
	email, tokenHash, passwordHash, passwordSalt string,
	now time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byEmail(email)
	if u == nil || u.resetHash == "" || u.resetHash != tokenHash || !u.resetExpires.After(now) {
		return core.ErrNotFound
	}
	u.info.PasswordHash, u.info.PasswordSalt = passwordHash, passwordSalt
	u.resetHash = ""
	u.info.TokenVersion++
	return nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.info.TokenVersion++
	return nil
}

func (f *fakeUsers) setRole(id, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].info.Role = role
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func (m *memRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (c *captureMailer) Send(_ context.Context, email mailer.Email) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, email)
	return nil
}

type fixture struct {
	svc         *auth.Service
	users       *fakeUsers
	revocations *memRevocations
	mail        *captureMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:       newFakeUsers(),
		revocations: &memRevocations{},
		mail:        &captureMailer{},
	}
	f.svc = auth.NewService(
		newJWT(t, testJWTConfig()),
		f.users,
		f.revocations,
		f.mail,
		auth.ServiceConfig{
			SiteName:      "City Listings",
			BaseURL:       "https://listings.example.com",
			ResetTokenTTL: time.Hour,
		},
	)
	return f
}

func (f *fixture) register(t *testing.T, email, password string) *auth.UserInfo {
	t.Helper()
	u, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: "Tester",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func (f *fixture) login(t *testing.T, email, password string) *auth.Session {
	t.Helper()
	s, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}

func TestRegisterNormalizesAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "  Alice@Example.COM ", "secret1")
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret1" {
		t.Fatal("password stored in the clear")
	}

	_, err := f.svc.Register(ctx, auth.RegisterRequest{
		Email: "alice@example.com", Password: "another", DisplayName: "Dup",
	})
	if !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob@example.com", "hunter22")

	s := f.login(t, "BOB@example.com", "hunter22")
	if s.Token == "" || s.User.Email != "bob@example.com" {
		t.Fatalf("session = %+v", s)
	}

	for _, tc := range []auth.LoginRequest{
		{Email: "bob@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "hunter22"},
	} {
		if _, err := f.svc.Login(context.Background(), tc); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Fatalf("login %s err = %v", tc.Email, err)
		}
	}
}

func TestVerifySessionToken(t *testing.T) {
	ctx := context.Background()

	t.Run("role comes from the user record", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "carol@example.com", "pass1234")
		s := f.login(t, "carol@example.com", "pass1234")

		f.users.setRole(u.ID, "admin")
		claims, err := f.svc.VerifySessionToken(ctx, s.Token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.Role != "admin" {
			t.Fatalf("role = %q, want admin", claims.Role)
		}
	})

	t.Run("logout revokes", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "dan@example.com", "pass1234")
		s := f.login(t, "dan@example.com", "pass1234")

		if err := f.svc.Logout(ctx, s.Token); err != nil {
			t.Fatalf("logout: %v", err)
		}
		if _, err := f.svc.VerifySessionToken(ctx, s.Token); !errors.Is(err, core.ErrTokenRevoked) {
			t.Fatalf("verify after logout err = %v", err)
		}
		if f.svc.CurrentUser(ctx, s.Token) != nil {
			t.Fatal("revoked token must not resolve a user")
		}
	})

	t.Run("logout all bumps version", func(t *testing.T) {
		f := newFixture(t)
		u := f.register(t, "erin@example.com", "pass1234")
		s := f.login(t, "erin@example.com", "pass1234")

		if err := f.svc.LogoutAll(ctx, u.ID); err != nil {
			t.Fatalf("logout all: %v", err)
		}
		if _, err := f.svc.VerifySessionToken(ctx, s.Token); !errors.Is(err, core.ErrTokenRevoked) {
			t.Fatalf("verify after logout-all err = %v", err)
		}
	})

	t.Run("revocation store failure rejects", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "fay@example.com", "pass1234")
		s := f.login(t, "fay@example.com", "pass1234")

		f.revocations.err = errors.New("redis unavailable")
		if _, err := f.svc.VerifySessionToken(ctx, s.Token); err == nil {
			t.Fatal("verify must fail when revocations cannot be checked")
		}
	})
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "gus@example.com", "pass1234")
	s := f.login(t, "gus@example.com", "pass1234")

	u := f.svc.CurrentUser(ctx, s.Token)
	if u == nil || u.Email != "gus@example.com" || u.Role != "user" {
		t.Fatalf("current user = %+v", u)
	}

	if f.svc.CurrentUser(ctx, "") != nil || f.svc.CurrentUser(ctx, "garbage") != nil {
		t.Fatal("invalid tokens must resolve to nil")
	}

	if err := f.svc.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("logout with unparseable token: %v", err)
	}
}

func resetTokenFrom(t *testing.T, email mailer.Email) string {
	t.Helper()

	for _, line := range strings.Split(email.TextBody, "\n") {
		if !strings.HasPrefix(line, "https://listings.example.com/reset?") {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(line))
		if err != nil {
			t.Fatalf("parse reset link: %v", err)
		}
		return u.Query().Get("token")
	}
	t.Fatalf("no reset link in %q", email.TextBody)
	return ""
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "hal@example.com", "oldpass1")
	old := f.login(t, "hal@example.com", "oldpass1")

	if err := f.svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email should succeed silently: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("no email should go to an unknown address")
	}

	if err := f.svc.RequestPasswordReset(ctx, " HAL@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].To != "hal@example.com" {
		t.Fatalf("sent = %+v", f.mail.sent)
	}
	if !strings.Contains(f.mail.sent[0].HTMLBody, "1 hour") {
		t.Fatal("html body should state the expiry")
	}
	token := resetTokenFrom(t, f.mail.sent[0])

	bad := auth.ResetPasswordRequest{Token: "wrong", Email: "hal@example.com", NewPassword: "newpass1"}
	if err := f.svc.ResetPassword(ctx, bad); !errors.Is(err, auth.ErrInvalidOrExpired) {
		t.Fatalf("wrong token err = %v", err)
	}

	good := auth.ResetPasswordRequest{Token: token, Email: "hal@example.com", NewPassword: "newpass1"}
	if err := f.svc.ResetPassword(ctx, good); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, good); !errors.Is(err, auth.ErrInvalidOrExpired) {
		t.Fatalf("reused token err = %v", err)
	}

	if _, err := f.svc.Login(ctx, auth.LoginRequest{Email: "hal@example.com", Password: "oldpass1"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	f.login(t, "hal@example.com", "newpass1")

	if _, err := f.svc.VerifySessionToken(ctx, old.Token); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("pre-reset session err = %v", err)
	}
}

func TestPasswordResetDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ivy@example.com", "pass1234")
	f.mail.err = errors.New("smtp timeout")

	err := f.svc.RequestPasswordReset(context.Background(), "ivy@example.com")
	if !errors.Is(err, auth.ErrEmailDelivery) {
		t.Fatalf("err = %v, want ErrEmailDelivery", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "jo@example.com", "pass1234")

	if err := f.svc.ChangePassword(ctx, u.ID, "wrong", "next1234"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong current err = %v", err)
	}
	if err := f.svc.ChangePassword(ctx, u.ID, "pass1234", "next1234"); err != nil {
		t.Fatalf("change: %v", err)
	}
	f.login(t, "jo@example.com", "next1234")
}
