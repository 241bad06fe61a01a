package app

import (
	"context"
	"errors"
	"testing"

	"quotedesk/pkg/domain"
)

func TestGetUserSelfOrAdmin(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	admin := seedUser(t, s, "admin@example.com", domain.RoleAdmin)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	other := seedUser(t, s, "o@example.com", domain.RoleClient)

	if _, err := a.GetUser(ctx, client, client.ID); err != nil {
		t.Fatalf("self get: %v", err)
	}
	if _, err := a.GetUser(ctx, admin, client.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := a.GetUser(ctx, other, client.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for other user, got: %v", err)
	}
	if _, err := a.GetUser(ctx, admin, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestListUsersIncludesCounts(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	dist := seedUser(t, s, "d@example.com", domain.RoleDistributor)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)
	p := seedProduct(t, s, dist, "widget", 10)
	seedQuotation(t, s, dist, client, []domain.QuotationItem{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}})

	page, err := a.ListUsers(ctx, UserListInput{})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 users, got %d", len(page.Items))
	}
	for _, u := range page.Items {
		switch u.ID {
		case dist.ID:
			if u.Counts.Products != 1 || u.Counts.Quotations != 1 {
				t.Fatalf("distributor counts: %+v", u.Counts)
			}
		case client.ID:
			if u.Counts.ClientQuotations != 1 {
				t.Fatalf("client counts: %+v", u.Counts)
			}
		}
	}

	if _, err := a.ListUsers(ctx, UserListInput{Role: "BOGUS"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation for unknown role, got: %v", err)
	}
}

func TestListUsersSearch(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, domain.User{Email: "ana@example.com", Name: "Ana Silva", Role: domain.RoleClient}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedUser(t, s, "bob@example.com", domain.RoleClient)

	page, err := a.ListUsers(ctx, UserListInput{SearchQuery: "silva"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Email != "ana@example.com" {
		t.Fatalf("name search failed: %+v", page.Items)
	}
	page, err = a.ListUsers(ctx, UserListInput{SearchQuery: "bob@"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Email != "bob@example.com" {
		t.Fatalf("email search failed: %+v", page.Items)
	}
}

func TestUpdateUserRole(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	client := seedUser(t, s, "c@example.com", domain.RoleClient)

	role := domain.RoleDistributor
	u, err := a.UpdateUser(ctx, UserUpdateInput{ID: client.ID, Role: &role})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if u.Role != domain.RoleDistributor {
		t.Fatalf("role = %q", u.Role)
	}

	bad := domain.Role("SUPERUSER")
	if _, err := a.UpdateUser(ctx, UserUpdateInput{ID: client.ID, Role: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation for unknown role, got: %v", err)
	}
	if _, err := a.UpdateUser(ctx, UserUpdateInput{ID: "missing", Role: &role}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestGetClientsOnlyClients(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	seedUser(t, s, "d@example.com", domain.RoleDistributor)
	seedUser(t, s, "admin@example.com", domain.RoleAdmin)
	client := seedUser(t, s, "c@example.com", domain.RoleClient)

	page, err := a.GetClients(ctx, ClientListInput{})
	if err != nil {
		t.Fatalf("get clients: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != client.ID {
		t.Fatalf("expected only client-role users: %+v", page.Items)
	}
}

func TestMeRefetchesUser(t *testing.T) {
	a, s := newTestApp(t)
	ctx := context.Background()
	client := seedUser(t, s, "c@example.com", domain.RoleClient)

	// Simulate a stale session copy with an elevated role.
	stale := client
	stale.Role = domain.RoleAdmin
	u, err := a.Me(ctx, stale)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.Role != domain.RoleClient {
		t.Fatalf("me must return the persisted role, got %q", u.Role)
	}

	if _, err := a.Me(ctx, domain.User{ID: "gone"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for deleted user, got: %v", err)
	}
}
