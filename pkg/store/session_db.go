package store

import (
	"context"
	"fmt"
	"time"

	"quotedesk/pkg/domain"
)

// DatabaseSessionStore issues opaque session tokens backed by session rows.
// The user's role is captured at issue time, so a role change only takes
// effect on the next sign-in unless a handler re-checks the persisted role.
type DatabaseSessionStore struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewDatabaseSessionStore builds a session store over the given record store.
func NewDatabaseSessionStore(s Store, ttl time.Duration) *DatabaseSessionStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &DatabaseSessionStore{store: s, ttl: ttl, now: time.Now}
}

// NewSession creates a session row and returns its opaque token.
func (d *DatabaseSessionStore) NewSession(ctx context.Context, user domain.User) (string, error) {
	token := NewToken()
	sess := domain.Session{
		SessionToken: token,
		UserID:       user.ID,
		Role:         user.Role,
		Expires:      d.now().UTC().Add(d.ttl),
	}
	if err := d.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Resolve looks up the session row for token. Expired rows are deleted and
// reported as absent. Sessions past half their lifetime get their expiry
// pushed out, so active users stay signed in.
func (d *DatabaseSessionStore) Resolve(ctx context.Context, token string) (domain.Session, bool, error) {
	sess, ok, err := d.store.GetSession(ctx, token)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return domain.Session{}, false, nil
	}
	now := d.now().UTC()
	if !sess.Expires.After(now) {
		_ = d.store.DeleteSession(ctx, token)
		return domain.Session{}, false, nil
	}
	if sess.Expires.Sub(now) < d.ttl/2 {
		refreshed, err := d.store.UpdateSession(ctx, token, now.Add(d.ttl))
		if err == nil {
			sess = refreshed
		}
	}
	return sess, true, nil
}

// Delete removes the session row; deleting an unknown token is a no-op.
func (d *DatabaseSessionStore) Delete(ctx context.Context, token string) error {
	return d.store.DeleteSession(ctx, token)
}
