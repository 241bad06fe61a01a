package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// QuotationListInput filters the quotation listing.
type QuotationListInput struct {
	Limit  int                    `json:"limit"`
	Cursor string                 `json:"cursor"`
	Status domain.QuotationStatus `json:"status"`
}

// QuotationPage is one page of quotations.
type QuotationPage struct {
	Items      []domain.Quotation `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// QuotationItemInput is one line of a quotation write.
type QuotationItemInput struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Discount  float64 `json:"discount"`
}

// QuotationCreateInput carries fields for a new quotation.
type QuotationCreateInput struct {
	Title      string               `json:"title"`
	ClientID   string               `json:"clientId"`
	Notes      string               `json:"notes"`
	ValidUntil *time.Time           `json:"validUntil"`
	Items      []QuotationItemInput `json:"items"`
}

// QuotationUpdateInput patches quotation header fields.
type QuotationUpdateInput struct {
	ID         string                  `json:"id"`
	Title      *string                 `json:"title"`
	Notes      *string                 `json:"notes"`
	ValidUntil *time.Time              `json:"validUntil"`
	Status     *domain.QuotationStatus `json:"status"`
}

// QuotationItemsInput replaces a quotation's item set.
type QuotationItemsInput struct {
	QuotationID string               `json:"quotationId"`
	Items       []QuotationItemInput `json:"items"`
}

// ListQuotations returns the actor's visible quotations: admins see all,
// distributors what they created, clients what is addressed to them.
func (a *App) ListQuotations(ctx context.Context, actor domain.User, in QuotationListInput) (QuotationPage, error) {
	if in.Status != "" && !in.Status.Valid() {
		return QuotationPage{}, validationf("unknown status %q", in.Status)
	}
	filter := store.QuotationFilter{
		ListParams: store.ListParams{Limit: in.Limit, Cursor: in.Cursor},
		Status:     in.Status,
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDistributor:
		filter.CreatedByID = actor.ID
	default:
		filter.ClientID = actor.ID
	}
	items, next, err := a.store.ListQuotations(ctx, filter)
	if err != nil {
		return QuotationPage{}, fmt.Errorf("list quotations: %w", err)
	}
	return QuotationPage{Items: items, NextCursor: next}, nil
}

// GetQuotation returns one quotation for the admin, its creator, or its
// client.
func (a *App) GetQuotation(ctx context.Context, actor domain.User, id string) (domain.Quotation, error) {
	q, ok, err := a.store.GetQuotation(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Quotation{}, fmt.Errorf("get quotation: %w", err)
	}
	if !ok {
		return domain.Quotation{}, fmt.Errorf("quotation: %w", ErrNotFound)
	}
	if actor.Role != domain.RoleAdmin && q.CreatedByID != actor.ID && q.ClientID != actor.ID {
		return domain.Quotation{}, fmt.Errorf("get quotation: %w", ErrForbidden)
	}
	return q, nil
}

// CreateQuotation inserts a DRAFT quotation with its items in one
// transaction. Distributors and admins only; the total is always derived
// from the items.
func (a *App) CreateQuotation(ctx context.Context, actor domain.User, in QuotationCreateInput) (domain.Quotation, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleDistributor {
		return domain.Quotation{}, fmt.Errorf("create quotation: %w", ErrForbidden)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Quotation{}, validationf("title is required")
	}
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.ClientID == "" {
		return domain.Quotation{}, validationf("clientId is required")
	}
	items, err := validateItems(in.Items, true)
	if err != nil {
		return domain.Quotation{}, err
	}
	if _, ok, err := a.store.GetUser(ctx, in.ClientID); err != nil {
		return domain.Quotation{}, fmt.Errorf("lookup client: %w", err)
	} else if !ok {
		return domain.Quotation{}, fmt.Errorf("client: %w", ErrNotFound)
	}

	q, err := a.store.CreateQuotationWithItems(ctx, domain.Quotation{
		Title:       in.Title,
		ClientID:    in.ClientID,
		CreatedByID: actor.ID,
		Status:      domain.StatusDraft,
		TotalAmount: domain.ItemsTotal(items),
		Notes:       strings.TrimSpace(in.Notes),
		ValidUntil:  in.ValidUntil,
	}, items)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Quotation{}, fmt.Errorf("quotation item product: %w", ErrNotFound)
		}
		return domain.Quotation{}, fmt.Errorf("create quotation: %w", err)
	}
	return q, nil
}

// UpdateQuotation patches header fields. Admin or creator only. Once a
// quotation has left DRAFT, a non-admin creator may only change the status.
func (a *App) UpdateQuotation(ctx context.Context, actor domain.User, in QuotationUpdateInput) (domain.Quotation, error) {
	q, err := a.mutableQuotation(ctx, actor, in.ID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return domain.Quotation{}, validationf("unknown status %q", *in.Status)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return domain.Quotation{}, validationf("title cannot be empty")
	}
	if q.Status != domain.StatusDraft && actor.Role != domain.RoleAdmin {
		if in.Status == nil || in.Title != nil || in.Notes != nil || in.ValidUntil != nil {
			return domain.Quotation{}, fmt.Errorf("only status can change after draft: %w", ErrForbidden)
		}
	}
	updated, err := a.store.UpdateQuotation(ctx, q.ID, store.QuotationPatch{
		Title:      in.Title,
		Notes:      in.Notes,
		ValidUntil: in.ValidUntil,
		Status:     in.Status,
	})
	if err != nil {
		return domain.Quotation{}, fmt.Errorf("update quotation: %w", err)
	}
	return updated, nil
}

// UpdateQuotationItems reconciles the item set of a DRAFT quotation and
// recomputes the total, all in one transaction. Items sent with an unknown
// id are ignored.
func (a *App) UpdateQuotationItems(ctx context.Context, actor domain.User, in QuotationItemsInput) (domain.Quotation, error) {
	q, err := a.mutableQuotation(ctx, actor, in.QuotationID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if q.Status != domain.StatusDraft {
		return domain.Quotation{}, fmt.Errorf("items are fixed after draft: %w", ErrForbidden)
	}
	items, err := validateItems(in.Items, false)
	if err != nil {
		return domain.Quotation{}, err
	}
	updated, err := a.store.ReplaceQuotationItems(ctx, q.ID, items)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Quotation{}, fmt.Errorf("quotation: %w", ErrNotFound)
		}
		return domain.Quotation{}, fmt.Errorf("update quotation items: %w", err)
	}
	return updated, nil
}

// DeleteQuotation removes a quotation with its items and attachments in one
// transaction. Non-admin creators may only delete drafts. Stored attachment
// objects are cleaned up best effort after the rows are gone.
func (a *App) DeleteQuotation(ctx context.Context, actor domain.User, id string) error {
	q, err := a.mutableQuotation(ctx, actor, id)
	if err != nil {
		return err
	}
	if q.Status != domain.StatusDraft && actor.Role != domain.RoleAdmin {
		return fmt.Errorf("only drafts can be deleted: %w", ErrForbidden)
	}
	removed, err := a.store.DeleteQuotationCascade(ctx, q.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quotation: %w", ErrNotFound)
		}
		return fmt.Errorf("delete quotation: %w", err)
	}
	a.removeObjects(ctx, removed)
	return nil
}

// mutableQuotation loads a quotation and checks the admin-or-creator gate
// shared by every quotation write.
func (a *App) mutableQuotation(ctx context.Context, actor domain.User, id string) (domain.Quotation, error) {
	q, ok, err := a.store.GetQuotation(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Quotation{}, fmt.Errorf("get quotation: %w", err)
	}
	if !ok {
		return domain.Quotation{}, fmt.Errorf("quotation: %w", ErrNotFound)
	}
	if actor.Role != domain.RoleAdmin && q.CreatedByID != actor.ID {
		return domain.Quotation{}, fmt.Errorf("quotation write: %w", ErrForbidden)
	}
	return q, nil
}

func validateItems(in []QuotationItemInput, requireOne bool) ([]domain.QuotationItem, error) {
	if requireOne && len(in) == 0 {
		return nil, validationf("at least one item is required")
	}
	items := make([]domain.QuotationItem, 0, len(in))
	for i, it := range in {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, validationf("item %d: productId is required", i)
		}
		if it.Quantity <= 0 {
			return nil, validationf("item %d: quantity must be positive", i)
		}
		if it.UnitPrice <= 0 {
			return nil, validationf("item %d: unitPrice must be positive", i)
		}
		if it.Discount < 0 || it.Discount > 100 {
			return nil, validationf("item %d: discount must be between 0 and 100", i)
		}
		items = append(items, domain.QuotationItem{
			ID:        strings.TrimSpace(it.ID),
			ProductID: strings.TrimSpace(it.ProductID),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
		})
	}
	return items, nil
}
