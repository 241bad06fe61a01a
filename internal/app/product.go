package app

import (
	"context"
	"fmt"
	"strings"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// ProductListInput filters the public catalog listing.
type ProductListInput struct {
	Limit       int    `json:"limit"`
	Cursor      string `json:"cursor"`
	CategoryID  string `json:"categoryId"`
	SearchQuery string `json:"searchQuery"`
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Items      []domain.Product `json:"items"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// ProductCreateInput carries fields for a new product.
type ProductCreateInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	SKU         string  `json:"sku"`
	Brand       string  `json:"brand"`
	InStock     *bool   `json:"inStock"`
	CategoryID  string  `json:"categoryId"`
}

// ProductUpdateInput carries the product id and optional new field values.
type ProductUpdateInput struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"imageUrl"`
	SKU         *string  `json:"sku"`
	Brand       *string  `json:"brand"`
	InStock     *bool    `json:"inStock"`
	CategoryID  *string  `json:"categoryId"`
}

// ListProducts returns a catalog page. Public.
func (a *App) ListProducts(ctx context.Context, in ProductListInput) (ProductPage, error) {
	items, next, err := a.store.ListProducts(ctx, store.ProductFilter{
		ListParams: store.ListParams{Limit: in.Limit, Cursor: in.Cursor},
		CategoryID: strings.TrimSpace(in.CategoryID),
		Search:     strings.TrimSpace(in.SearchQuery),
	})
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return ProductPage{Items: items, NextCursor: next}, nil
}

// GetProduct returns one product. Public.
func (a *App) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, ok, err := a.store.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	if !ok {
		return domain.Product{}, fmt.Errorf("product: %w", ErrNotFound)
	}
	return p, nil
}

// CreateProduct inserts a product owned by the actor.
func (a *App) CreateProduct(ctx context.Context, actor domain.User, in ProductCreateInput) (domain.Product, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return domain.Product{}, ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Product{}, validationf("name is required")
	}
	if in.Price <= 0 {
		return domain.Product{}, validationf("price must be positive")
	}
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}
	p, err := a.store.CreateProduct(ctx, domain.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		SKU:         strings.TrimSpace(in.SKU),
		Brand:       strings.TrimSpace(in.Brand),
		InStock:     inStock,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		UserID:      actor.ID,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct patches a product. Only the creator or an admin may update;
// the creator stamp itself never changes.
func (a *App) UpdateProduct(ctx context.Context, actor domain.User, in ProductUpdateInput) (domain.Product, error) {
	existing, err := a.GetProduct(ctx, in.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if actor.Role != domain.RoleAdmin && existing.UserID != actor.ID {
		return domain.Product{}, fmt.Errorf("update product: %w", ErrForbidden)
	}
	if in.Price != nil && *in.Price <= 0 {
		return domain.Product{}, validationf("price must be positive")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return domain.Product{}, validationf("name cannot be empty")
	}
	p, err := a.store.UpdateProduct(ctx, existing.ID, store.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		SKU:         in.SKU,
		Brand:       in.Brand,
		InStock:     in.InStock,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product. Creator or admin only.
func (a *App) DeleteProduct(ctx context.Context, actor domain.User, id string) error {
	existing, err := a.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && existing.UserID != actor.ID {
		return fmt.Errorf("delete product: %w", ErrForbidden)
	}
	if err := a.store.DeleteProduct(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
