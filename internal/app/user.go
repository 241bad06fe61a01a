package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// UserListInput filters the user listing.
type UserListInput struct {
	Limit       int         `json:"limit"`
	Cursor      string      `json:"cursor"`
	Role        domain.Role `json:"role"`
	SearchQuery string      `json:"searchQuery"`
}

// UserWithCounts is a user plus relation counts.
type UserWithCounts struct {
	domain.User
	Counts domain.UserCounts `json:"counts"`
}

// UserPage is one page of users.
type UserPage struct {
	Items      []UserWithCounts `json:"items"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// UserUpdateInput patches a user. Role changes go through here only.
type UserUpdateInput struct {
	ID   string       `json:"id"`
	Name *string      `json:"name"`
	Role *domain.Role `json:"role"`
}

// ListUsers returns a user page with relation counts. Admin gate is
// enforced by the route.
func (a *App) ListUsers(ctx context.Context, in UserListInput) (UserPage, error) {
	if in.Role != "" && !in.Role.Valid() {
		return UserPage{}, validationf("unknown role %q", in.Role)
	}
	users, next, err := a.store.ListUsers(ctx, store.UserFilter{
		ListParams: store.ListParams{Limit: in.Limit, Cursor: in.Cursor},
		Role:       in.Role,
		Search:     strings.TrimSpace(in.SearchQuery),
	})
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}
	items := make([]UserWithCounts, 0, len(users))
	for _, u := range users {
		counts, err := a.store.UserCounts(ctx, u.ID)
		if err != nil {
			return UserPage{}, fmt.Errorf("count user relations: %w", err)
		}
		items = append(items, UserWithCounts{User: u, Counts: counts})
	}
	return UserPage{Items: items, NextCursor: next}, nil
}

// GetUser returns one user with counts. Self or admin only.
func (a *App) GetUser(ctx context.Context, actor domain.User, id string) (UserWithCounts, error) {
	id = strings.TrimSpace(id)
	if actor.Role != domain.RoleAdmin && actor.ID != id {
		return UserWithCounts{}, fmt.Errorf("get user: %w", ErrForbidden)
	}
	u, ok, err := a.store.GetUser(ctx, id)
	if err != nil {
		return UserWithCounts{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return UserWithCounts{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	counts, err := a.store.UserCounts(ctx, u.ID)
	if err != nil {
		return UserWithCounts{}, fmt.Errorf("count user relations: %w", err)
	}
	return UserWithCounts{User: u, Counts: counts}, nil
}

// Me returns the current user's fresh record.
func (a *App) Me(ctx context.Context, actor domain.User) (domain.User, error) {
	u, ok, err := a.store.GetUser(ctx, actor.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUnauthorized
	}
	return u, nil
}

// UpdateUser patches name and role. Admin gate enforced by the route.
func (a *App) UpdateUser(ctx context.Context, in UserUpdateInput) (domain.User, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.User{}, validationf("id is required")
	}
	if in.Role != nil && !in.Role.Valid() {
		return domain.User{}, validationf("unknown role %q", *in.Role)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return domain.User{}, validationf("name cannot be empty")
	}
	u, err := a.store.UpdateUser(ctx, strings.TrimSpace(in.ID), store.UserPatch{
		Name: in.Name,
		Role: in.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("user: %w", ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// ClientListInput filters the client directory.
type ClientListInput struct {
	Limit       int    `json:"limit"`
	Cursor      string `json:"cursor"`
	SearchQuery string `json:"searchQuery"`
}

// GetClients lists CLIENT-role users for quotation targeting. Distributor
// and admin gate enforced by the route.
func (a *App) GetClients(ctx context.Context, in ClientListInput) (UserPage, error) {
	return a.ListUsers(ctx, UserListInput{
		Limit:       in.Limit,
		Cursor:      in.Cursor,
		Role:        domain.RoleClient,
		SearchQuery: in.SearchQuery,
	})
}
