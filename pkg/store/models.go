package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"quotedesk/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID            string `gorm:"primaryKey"`
	Email         string `gorm:"uniqueIndex;not null"`
	Name          string
	Role          string `gorm:"not null;index"`
	EmailVerified *time.Time
	Image         string
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (UserModel) TableName() string { return "users" }

type AccountModel struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"not null;index"`
	Type              string `gorm:"not null"`
	Provider          string `gorm:"not null;index:idx_provider_account,unique,priority:1"`
	ProviderAccountID string `gorm:"not null;index:idx_provider_account,unique,priority:2"`
	AccessToken       string
	TokenType         string
	Scope             string
	IDToken           string
	SessionState      string
	ExpiresAt         int64
}

func (AccountModel) TableName() string { return "accounts" }

type SessionModel struct {
	SessionToken string `gorm:"primaryKey"`
	UserID       string `gorm:"not null;index"`
	Role         string `gorm:"not null"`
	Expires      time.Time `gorm:"not null;index"`
}

func (SessionModel) TableName() string { return "sessions" }

type VerificationTokenModel struct {
	Identifier string    `gorm:"primaryKey"`
	TokenHash  string    `gorm:"primaryKey"`
	Expires    time.Time `gorm:"not null;index"`
}

func (VerificationTokenModel) TableName() string { return "verification_tokens" }

type CategoryModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time `gorm:"not null"`
}

func (CategoryModel) TableName() string { return "categories" }

type ProductModel struct {
	ID          string  `gorm:"primaryKey"`
	Name        string  `gorm:"not null;index"`
	Description string
	Price       float64 `gorm:"not null"`
	ImageURL    string
	SKU         string `gorm:"index"`
	Brand       string
	InStock     bool   `gorm:"not null"`
	CategoryID  string `gorm:"index"`
	UserID      string `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (ProductModel) TableName() string { return "products" }

type QuotationModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	ClientID    string `gorm:"not null;index"`
	CreatedByID string `gorm:"not null;index"`
	Status      string `gorm:"not null;index"`
	TotalAmount float64 `gorm:"not null"`
	Notes       string
	ValidUntil  *time.Time
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (QuotationModel) TableName() string { return "quotations" }

type QuotationItemModel struct {
	ID          string  `gorm:"primaryKey"`
	QuotationID string  `gorm:"not null;index"`
	ProductID   string  `gorm:"not null;index"`
	Quantity    int     `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	Discount    float64 `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (QuotationItemModel) TableName() string { return "quotation_items" }

type AttachmentModel struct {
	ID          string `gorm:"primaryKey"`
	QuotationID string `gorm:"not null;index"`
	FileName    string `gorm:"not null"`
	StorageKey  string `gorm:"not null"`
	ContentType string
	SizeBytes   int64
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
}

func (AttachmentModel) TableName() string { return "attachments" }

// model <-> domain converters

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		Role:          domain.Role(m.Role),
		EmailVerified: m.EmailVerified,
		Image:         m.Image,
		CreatedAt:     m.CreatedAt,
	}
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:                a.ID,
		UserID:            a.UserID,
		Type:              a.Type,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		AccessToken:       a.AccessToken,
		TokenType:         a.TokenType,
		Scope:             a.Scope,
		IDToken:           a.IDToken,
		SessionState:      a.SessionState,
		ExpiresAt:         a.ExpiresAt,
	}
}

func sessionToModel(s domain.Session) SessionModel {
	return SessionModel{
		SessionToken: s.SessionToken,
		UserID:       s.UserID,
		Role:         string(s.Role),
		Expires:      s.Expires,
	}
}

func sessionFromModel(m SessionModel) domain.Session {
	return domain.Session{
		SessionToken: m.SessionToken,
		UserID:       m.UserID,
		Role:         domain.Role(m.Role),
		Expires:      m.Expires,
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func productToModel(p domain.Product) ProductModel {
	return ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		SKU:         p.SKU,
		Brand:       p.Brand,
		InStock:     p.InStock,
		CategoryID:  p.CategoryID,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
	}
}

func productFromModel(m ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
		SKU:         m.SKU,
		Brand:       m.Brand,
		InStock:     m.InStock,
		CategoryID:  m.CategoryID,
		UserID:      m.UserID,
		CreatedAt:   m.CreatedAt,
	}
}

func quotationFromModel(m QuotationModel) domain.Quotation {
	return domain.Quotation{
		ID:          m.ID,
		Title:       m.Title,
		ClientID:    m.ClientID,
		CreatedByID: m.CreatedByID,
		Status:      domain.QuotationStatus(m.Status),
		TotalAmount: m.TotalAmount,
		Notes:       m.Notes,
		ValidUntil:  m.ValidUntil,
		CreatedAt:   m.CreatedAt,
	}
}

func itemToModel(i domain.QuotationItem) QuotationItemModel {
	return QuotationItemModel{
		ID:          i.ID,
		QuotationID: i.QuotationID,
		ProductID:   i.ProductID,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		Discount:    i.Discount,
	}
}

func itemFromModel(m QuotationItemModel) domain.QuotationItem {
	return domain.QuotationItem{
		ID:          m.ID,
		QuotationID: m.QuotationID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
	}
}

func attachmentToModel(a domain.Attachment) (AttachmentModel, error) {
	m := AttachmentModel{
		ID:          a.ID,
		QuotationID: a.QuotationID,
		FileName:    a.FileName,
		StorageKey:  a.StorageKey,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
	if len(a.Metadata) > 0 {
		raw, err := json.Marshal(a.Metadata)
		if err != nil {
			return AttachmentModel{}, err
		}
		m.Metadata = datatypes.JSON(raw)
	}
	return m, nil
}

func attachmentFromModel(m AttachmentModel) domain.Attachment {
	a := domain.Attachment{
		ID:          m.ID,
		QuotationID: m.QuotationID,
		FileName:    m.FileName,
		StorageKey:  m.StorageKey,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		CreatedAt:   m.CreatedAt,
	}
	if len(m.Metadata) > 0 {
		meta := make(map[string]string)
		if err := json.Unmarshal(m.Metadata, &meta); err == nil {
			a.Metadata = meta
		}
	}
	return a
}
