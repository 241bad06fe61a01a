package domain

import "time"

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleDistributor Role = "DISTRIBUTOR"
	RoleClient      Role = "CLIENT"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDistributor, RoleClient:
		return true
	}
	return false
}

type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "DRAFT"
	StatusSent     QuotationStatus = "SENT"
	StatusAccepted QuotationStatus = "ACCEPTED"
	StatusRejected QuotationStatus = "REJECTED"
	StatusExpired  QuotationStatus = "EXPIRED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s QuotationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	Role          Role       `json:"role"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Image         string     `json:"image,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// UserCounts carries per-user relation counts returned alongside user reads.
type UserCounts struct {
	Products         int64 `json:"products"`
	Quotations       int64 `json:"quotations"`
	ClientQuotations int64 `json:"clientQuotations"`
}

// Account links a user to an external auth provider identity.
// The (Provider, ProviderAccountID) pair is unique.
type Account struct {
	ID                string `json:"id"`
	UserID            string `json:"userId"`
	Type              string `json:"type"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	AccessToken       string `json:"-"`
	TokenType         string `json:"-"`
	Scope             string `json:"-"`
	IDToken           string `json:"-"`
	SessionState      string `json:"-"`
	ExpiresAt         int64  `json:"-"`
}

// Session binds a session token to a user and the role captured at issue
// time. The cached role is only trusted by the plain authenticated gate;
// elevated gates re-check the persisted role.
type Session struct {
	SessionToken string    `json:"-"`
	UserID       string    `json:"userId"`
	Role         Role      `json:"role"`
	Expires      time.Time `json:"expires"`
}

// VerificationToken is the single-use credential behind a magic link.
// Only a bcrypt hash of the emailed token is stored.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	TokenHash  string    `json:"-"`
	Expires    time.Time `json:"expires"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	InStock     bool      `json:"inStock"`
	CategoryID  string    `json:"categoryId,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Quotation struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ClientID    string          `json:"clientId"`
	CreatedByID string          `json:"createdById"`
	Status      QuotationStatus `json:"status"`
	TotalAmount float64         `json:"totalAmount"`
	Notes       string          `json:"notes,omitempty"`
	ValidUntil  *time.Time      `json:"validUntil,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`

	Items       []QuotationItem `json:"items,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Client      *UserRef        `json:"client,omitempty"`
	CreatedBy   *UserRef        `json:"createdBy,omitempty"`
}

// UserRef is the trimmed user shape embedded in quotation reads.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type QuotationItem struct {
	ID          string  `json:"id"`
	QuotationID string  `json:"quotationId"`
	ProductID   string  `json:"productId"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Discount    float64 `json:"discount"`
}

// LineTotal applies the discount formula for one item.
func (i QuotationItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity) * (1 - i.Discount/100)
}

// ItemsTotal sums line totals; quotation totals are always derived this way.
func ItemsTotal(items []QuotationItem) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

type Attachment struct {
	ID          string            `json:"id"`
	QuotationID string            `json:"quotationId"`
	FileName    string            `json:"fileName"`
	StorageKey  string            `json:"-"`
	ContentType string            `json:"contentType,omitempty"`
	SizeBytes   int64             `json:"sizeBytes"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
