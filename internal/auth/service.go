package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// Limiter gates sign-in requests per key.
type Limiter interface {
	Allow(key string) bool
}

// Service implements passwordless email sign-in. A sign-in request emails a
// single-use magic link; following the link redeems the token and opens a
// session. Only a bcrypt hash of the token is ever stored.
type Service struct {
	store    store.Store
	sessions store.SessionStore
	mailer   Mailer
	limiter  Limiter

	baseURL string
	linkTTL time.Duration
	now     func() time.Time
}

// Config wires the sign-in service.
type Config struct {
	Store    store.Store
	Sessions store.SessionStore
	Mailer   Mailer
	Limiter  Limiter
	BaseURL  string
	LinkTTL  time.Duration
}

// NewService builds the sign-in service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Mailer == nil {
		cfg.Mailer = LogMailer{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 24 * time.Hour
	}
	return &Service{
		store:    cfg.Store,
		sessions: cfg.Sessions,
		mailer:   cfg.Mailer,
		limiter:  cfg.Limiter,
		baseURL:  baseURL,
		linkTTL:  cfg.LinkTTL,
		now:      time.Now,
	}, nil
}

// SignIn emails a magic link to the address. Unknown addresses get a link
// too; the account is created when the link is redeemed. The response is
// identical either way, so sign-in cannot be used to enumerate accounts.
func (s *Service) SignIn(ctx context.Context, email, clientIP string) error {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrEmailRequired
	}
	if s.limiter != nil {
		if !s.limiter.Allow("signin:email:" + email) {
			return ErrTooManyRequests
		}
		if clientIP != "" && !s.limiter.Allow("signin:ip:"+clientIP) {
			return ErrTooManyRequests
		}
	}

	token := store.NewToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash sign-in token: %w", err)
	}
	if err := s.store.CreateVerificationToken(ctx, domain.VerificationToken{
		Identifier: email,
		TokenHash:  string(hash),
		Expires:    s.now().UTC().Add(s.linkTTL),
	}); err != nil {
		return fmt.Errorf("store sign-in token: %w", err)
	}

	if err := s.mailer.SendSignInLink(ctx, email, s.signInURL(email, token)); err != nil {
		return fmt.Errorf("send sign-in link: %w", err)
	}
	return nil
}

// Callback redeems a magic link and opens a session. The token is consumed
// even when it turns out to be expired, so a link never works twice.
func (s *Service) Callback(ctx context.Context, email, token string) (domain.User, string, error) {
	email = NormalizeEmail(email)
	if email == "" || strings.TrimSpace(token) == "" {
		return domain.User{}, "", ErrInvalidSignInLink
	}
	used, err := s.store.UseVerificationToken(ctx, email, token)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("use sign-in token: %w", err)
	}
	if used == nil || !used.Expires.After(s.now().UTC()) {
		return domain.User{}, "", ErrInvalidSignInLink
	}

	user, err := s.ensureUser(ctx, email)
	if err != nil {
		return domain.User{}, "", err
	}
	sessionToken, err := s.sessions.NewSession(ctx, user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, sessionToken, nil
}

// SignOut closes the session; unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionToken)
}

// ensureUser loads the user for the address, creating a CLIENT account on
// first sign-in. New accounts always start as CLIENT no matter what the
// caller sends; promotion is a separate admin operation.
func (s *Service) ensureUser(ctx context.Context, email string) (domain.User, error) {
	user, ok, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	now := s.now().UTC()
	if !ok {
		user, err = s.store.CreateUser(ctx, domain.User{
			Email:         email,
			Role:          domain.RoleClient,
			EmailVerified: &now,
		})
		if err != nil {
			return domain.User{}, fmt.Errorf("create user: %w", err)
		}
		return user, nil
	}
	if user.EmailVerified == nil {
		user, err = s.store.UpdateUser(ctx, user.ID, store.UserPatch{EmailVerified: &now})
		if err != nil {
			return domain.User{}, fmt.Errorf("stamp email verified: %w", err)
		}
	}
	return user, nil
}

func (s *Service) signInURL(email, token string) string {
	q := url.Values{}
	q.Set("identifier", email)
	q.Set("token", token)
	return s.baseURL + "/api/auth/callback?" + q.Encode()
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
