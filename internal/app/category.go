package app

import (
	"context"
	"fmt"
	"strings"

	"quotedesk/pkg/domain"
)

// CategoryCreateInput carries fields for a new category.
type CategoryCreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories returns all categories ordered by name. Public.
func (a *App) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a category. Admin gate enforced by the route.
func (a *App) CreateCategory(ctx context.Context, in CategoryCreateInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Category{}, validationf("name is required")
	}
	c, err := a.store.CreateCategory(ctx, domain.Category{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}
