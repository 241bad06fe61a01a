package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

type captureMailer struct {
	emails []string
	urls   []string
}

func (m *captureMailer) SendSignInLink(_ context.Context, email, link string) error {
	m.emails = append(m.emails, email)
	m.urls = append(m.urls, link)
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *captureMailer) {
	t.Helper()
	s := store.NewMemoryStore()
	mailer := &captureMailer{}
	svc, err := NewService(Config{
		Store:    s,
		Sessions: store.NewDatabaseSessionStore(s, time.Hour),
		Mailer:   mailer,
		BaseURL:  "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, s, mailer
}

func linkToken(t *testing.T, link string) (string, string) {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.Query().Get("identifier"), u.Query().Get("token")
}

func TestSignInAndCallbackCreatesClient(t *testing.T) {
	svc, s, mailer := newTestService(t)
	ctx := context.Background()

	if err := svc.SignIn(ctx, "  New.User@Example.COM ", "10.0.0.1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if len(mailer.urls) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.urls))
	}
	if mailer.emails[0] != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", mailer.emails[0])
	}
	if !strings.HasPrefix(mailer.urls[0], "http://localhost:3000/api/auth/callback?") {
		t.Fatalf("unexpected link: %q", mailer.urls[0])
	}
	if !strings.Contains(mailer.urls[0], "identifier=new.user%40example.com") {
		t.Fatalf("expected identifier query parameter in link: %q", mailer.urls[0])
	}

	email, token := linkToken(t, mailer.urls[0])
	user, sessionToken, err := svc.Callback(ctx, email, token)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user.Role != domain.RoleClient {
		t.Fatalf("new account role = %q, want CLIENT", user.Role)
	}
	if user.EmailVerified == nil {
		t.Fatal("expected email verified stamp")
	}
	if sessionToken == "" {
		t.Fatal("expected session token")
	}
	if _, ok, _ := s.GetUserByEmail(ctx, "new.user@example.com"); !ok {
		t.Fatal("expected user persisted")
	}
}

func TestCallbackLinkIsSingleUse(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	if err := svc.SignIn(ctx, "a@example.com", ""); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	email, token := linkToken(t, mailer.urls[0])
	if _, _, err := svc.Callback(ctx, email, token); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if _, _, err := svc.Callback(ctx, email, token); !errors.Is(err, ErrInvalidSignInLink) {
		t.Fatalf("expected invalid link on reuse, got: %v", err)
	}
}

func TestCallbackRejectsExpiredLink(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	if err := svc.SignIn(ctx, "a@example.com", ""); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	email, token := linkToken(t, mailer.urls[0])
	if _, _, err := svc.Callback(ctx, email, token); !errors.Is(err, ErrInvalidSignInLink) {
		t.Fatalf("expected invalid link when expired, got: %v", err)
	}
	// Consumed even though expired.
	svc.now = time.Now
	if _, _, err := svc.Callback(ctx, email, token); !errors.Is(err, ErrInvalidSignInLink) {
		t.Fatalf("expected link consumed, got: %v", err)
	}
}

func TestCallbackRejectsWrongToken(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	if err := svc.SignIn(ctx, "a@example.com", ""); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	email, _ := linkToken(t, mailer.urls[0])
	if _, _, err := svc.Callback(ctx, email, "forged"); !errors.Is(err, ErrInvalidSignInLink) {
		t.Fatalf("expected invalid link for forged token, got: %v", err)
	}
}

func TestCallbackKeepsExistingRole(t *testing.T) {
	svc, s, mailer := newTestService(t)
	ctx := context.Background()

	verified := time.Now().UTC()
	if _, err := s.CreateUser(ctx, domain.User{
		Email:         "admin@example.com",
		Role:          domain.RoleAdmin,
		EmailVerified: &verified,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := svc.SignIn(ctx, "admin@example.com", ""); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	email, token := linkToken(t, mailer.urls[0])
	user, _, err := svc.Callback(ctx, email, token)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("existing role must be kept, got %q", user.Role)
	}
}

func TestSignInRateLimited(t *testing.T) {
	s := store.NewMemoryStore()
	svc, err := NewService(Config{
		Store:    s,
		Sessions: store.NewDatabaseSessionStore(s, time.Hour),
		Mailer:   &captureMailer{},
		Limiter:  denyLimiter{},
		BaseURL:  "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.SignIn(context.Background(), "a@example.com", "10.0.0.1"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected rate limit error, got: %v", err)
	}
}

func TestSignInRejectsBadEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.SignIn(ctx, "  ", ""); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected email required, got: %v", err)
	}
	if err := svc.SignIn(ctx, "not-an-address", ""); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected email required for bad address, got: %v", err)
	}
}

func TestSignOutUnknownTokenIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.SignOut(context.Background(), "unknown"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if err := svc.SignOut(context.Background(), ""); err != nil {
		t.Fatalf("blank sign out: %v", err)
	}
}
