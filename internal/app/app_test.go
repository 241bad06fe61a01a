package app

import (
	"context"
	"testing"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/storage"
	"quotedesk/pkg/store"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	objects, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	a, err := New(Config{Store: s, Objects: objects})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, s
}

func seedUser(t *testing.T, s *store.MemoryStore, email string, role domain.Role) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.User{Email: email, Role: role})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func seedProduct(t *testing.T, s *store.MemoryStore, owner domain.User, name string, price float64) domain.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), domain.Product{
		Name:    name,
		Price:   price,
		InStock: true,
		UserID:  owner.ID,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func seedQuotation(t *testing.T, s *store.MemoryStore, creator, client domain.User, items []domain.QuotationItem) domain.Quotation {
	t.Helper()
	q, err := s.CreateQuotationWithItems(context.Background(), domain.Quotation{
		Title:       "seeded",
		ClientID:    client.ID,
		CreatedByID: creator.ID,
		Status:      domain.StatusDraft,
		TotalAmount: domain.ItemsTotal(items),
	}, items)
	if err != nil {
		t.Fatalf("seed quotation: %v", err)
	}
	return q
}
