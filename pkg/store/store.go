package store

import (
	"context"
	"errors"
	"time"

	"quotedesk/pkg/domain"
)

// ErrNotFound is returned by mutations targeting a missing row.
// Lookups report absence with ok=false instead.
var ErrNotFound = errors.New("record not found")

// ListParams are shared cursor-pagination inputs. Cursor is the id of the
// row the page starts at (inclusive); empty means first page.
type ListParams struct {
	Limit  int
	Cursor string
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	ListParams
	CategoryID string
	Search     string
}

// UserFilter narrows user listings. Role empty means any role.
type UserFilter struct {
	ListParams
	Role   domain.Role
	Search string
}

// QuotationFilter narrows quotation listings. CreatedByID / ClientID carry
// the caller's visibility scope; both empty means unscoped (admin).
type QuotationFilter struct {
	ListParams
	Status      domain.QuotationStatus
	CreatedByID string
	ClientID    string
}

// UserPatch updates only the fields whose pointers are non-nil.
type UserPatch struct {
	Name          *string
	Email         *string
	Role          *domain.Role
	EmailVerified *time.Time
	Image         *string
}

// ProductPatch updates only the fields whose pointers are non-nil.
// The creator (UserID) is immutable and deliberately not patchable.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	SKU         *string
	Brand       *string
	InStock     *bool
	CategoryID  *string
}

// QuotationPatch updates only the fields whose pointers are non-nil.
type QuotationPatch struct {
	Title      *string
	Notes      *string
	ValidUntil *time.Time
	Status     *domain.QuotationStatus
}

// Store is the persistence gateway. It owns every relational record and the
// transactional multi-row writes; implementations must make those writes
// atomic.
type Store interface {
	// users
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, bool, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, f UserFilter) ([]domain.User, string, error)
	UserCounts(ctx context.Context, id string) (domain.UserCounts, error)

	// provider accounts
	LinkAccount(ctx context.Context, a domain.Account) error
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	// sessions
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, token string) (domain.Session, bool, error)
	UpdateSession(ctx context.Context, token string, expires time.Time) (domain.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// verification tokens
	CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error
	// UseVerificationToken atomically deletes and returns the matching
	// token. It returns nil (not an error) when the pair does not exist,
	// was already redeemed, or does not match, so a link redeems at most
	// once.
	UseVerificationToken(ctx context.Context, identifier, token string) (*domain.VerificationToken, error)

	// categories
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// products
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, bool, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, string, error)

	// quotations
	CreateQuotationWithItems(ctx context.Context, q domain.Quotation, items []domain.QuotationItem) (domain.Quotation, error)
	GetQuotation(ctx context.Context, id string) (domain.Quotation, bool, error)
	ListQuotations(ctx context.Context, f QuotationFilter) ([]domain.Quotation, string, error)
	UpdateQuotation(ctx context.Context, id string, patch QuotationPatch) (domain.Quotation, error)
	// ReplaceQuotationItems reconciles the submitted items against the
	// stored ones by id (items without an id are inserted, matching ids
	// are updated in place, absent ids are deleted) and rewrites the
	// derived total, all in one transaction.
	ReplaceQuotationItems(ctx context.Context, quotationID string, items []domain.QuotationItem) (domain.Quotation, error)
	// DeleteQuotationCascade removes items, attachments, then the
	// quotation row, and returns the removed attachments so callers can
	// clean up stored objects after commit.
	DeleteQuotationCascade(ctx context.Context, id string) ([]domain.Attachment, error)

	// attachments
	AddAttachment(ctx context.Context, a domain.Attachment) (domain.Attachment, error)
	GetAttachment(ctx context.Context, id string) (domain.Attachment, bool, error)
	DeleteAttachment(ctx context.Context, id string) error
}

// SessionStore issues and resolves session tokens. Both strategies embed
// the user's role at issue time; resolving never consults the user row.
type SessionStore interface {
	NewSession(ctx context.Context, user domain.User) (string, error)
	Resolve(ctx context.Context, token string) (domain.Session, bool, error)
	Delete(ctx context.Context, token string) error
}
