package store

import (
	"context"
	"testing"
	"time"

	"quotedesk/pkg/domain"
)

func TestDatabaseSessionStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	sessions := NewDatabaseSessionStore(s, time.Hour)
	ctx := context.Background()

	user := domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleDistributor}
	token, err := sessions.NewSession(ctx, user)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if token == "" {
		t.Fatal("expected opaque token")
	}

	sess, ok, err := sessions.Resolve(ctx, token)
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if sess.UserID != "u1" || sess.Role != domain.RoleDistributor {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := sessions.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := sessions.Resolve(ctx, token); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestDatabaseSessionStoreExpiredSessionRemoved(t *testing.T) {
	s := NewMemoryStore()
	sessions := NewDatabaseSessionStore(s, time.Hour)
	ctx := context.Background()

	token, err := sessions.NewSession(ctx, domain.User{ID: "u1", Role: domain.RoleClient})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, ok, err := sessions.Resolve(ctx, token); err != nil || ok {
		t.Fatalf("expected expired session miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := s.GetSession(ctx, token); ok {
		t.Fatal("expired session row should be deleted")
	}
}

func TestDatabaseSessionStoreSlidingRefresh(t *testing.T) {
	s := NewMemoryStore()
	sessions := NewDatabaseSessionStore(s, time.Hour)
	ctx := context.Background()

	token, err := sessions.NewSession(ctx, domain.User{ID: "u1", Role: domain.RoleClient})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	future := time.Now().Add(45 * time.Minute)
	sessions.now = func() time.Time { return future }

	sess, ok, err := sessions.Resolve(ctx, token)
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if sess.Expires.Before(future.Add(59 * time.Minute)) {
		t.Fatalf("expected refreshed expiry, got %v", sess.Expires)
	}
}

func TestDatabaseSessionStoreUnknownToken(t *testing.T) {
	sessions := NewDatabaseSessionStore(NewMemoryStore(), time.Hour)
	if _, ok, err := sessions.Resolve(context.Background(), "nope"); err != nil || ok {
		t.Fatalf("expected miss for unknown token, ok=%v err=%v", ok, err)
	}
}
