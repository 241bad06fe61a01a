package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quotedesk/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&AccountModel{},
		&SessionModel{},
		&VerificationTokenModel{},
		&CategoryModel{},
		&ProductModel{},
		&QuotationModel{},
		&QuotationItemModel{},
		&AttachmentModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// users

// CreateUser inserts a user row.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	model := userToModel(u)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return userFromModel(model), nil
}

// GetUser returns a user by id; ok=false when absent.
func (s *GormStore) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail looks up a user by email; ok=false when absent.
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByAccount resolves the user behind a provider account pair.
func (s *GormStore) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, bool, error) {
	var account AccountModel
	err := s.db.WithContext(ctx).
		First(&account, "provider = ? AND provider_account_id = ?", provider, providerAccountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return s.GetUser(ctx, account.UserID)
}

// UpdateUser applies a partial update and returns the new row.
func (s *GormStore) UpdateUser(ctx context.Context, id string, patch UserPatch) (domain.User, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.Role != nil {
		fields["role"] = string(*patch.Role)
	}
	if patch.EmailVerified != nil {
		fields["email_verified"] = *patch.EmailVerified
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	var model UserModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&model).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// DeleteUser removes a user row.
func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns a page of users ordered by creation time descending.
func (s *GormStore) ListUsers(ctx context.Context, f UserFilter) ([]domain.User, string, error) {
	limit := ClampLimit(f.Limit)
	q := s.db.WithContext(ctx).Model(&UserModel{})
	if f.Role != "" {
		q = q.Where("role = ?", string(f.Role))
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	q, empty, err := s.afterCursor(ctx, q, &UserModel{}, f.Cursor)
	if err != nil {
		return nil, "", err
	}
	if empty {
		return []domain.User{}, "", nil
	}
	var models []UserModel
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, "", err
	}
	models, next := CutPage(models, limit, func(m UserModel) string { return m.ID })
	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, userFromModel(m))
	}
	return users, next, nil
}

// UserCounts returns relation counts for one user.
func (s *GormStore) UserCounts(ctx context.Context, id string) (domain.UserCounts, error) {
	var counts domain.UserCounts
	db := s.db.WithContext(ctx)
	if err := db.Model(&ProductModel{}).Where("user_id = ?", id).Count(&counts.Products).Error; err != nil {
		return domain.UserCounts{}, err
	}
	if err := db.Model(&QuotationModel{}).Where("created_by_id = ?", id).Count(&counts.Quotations).Error; err != nil {
		return domain.UserCounts{}, err
	}
	if err := db.Model(&QuotationModel{}).Where("client_id = ?", id).Count(&counts.ClientQuotations).Error; err != nil {
		return domain.UserCounts{}, err
	}
	return counts, nil
}

// provider accounts

// LinkAccount inserts a provider-account association.
func (s *GormStore) LinkAccount(ctx context.Context, a domain.Account) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	model := accountToModel(a)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	return nil
}

// UnlinkAccount deletes the association; ErrNotFound when the pair is absent.
func (s *GormStore) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	res := s.db.WithContext(ctx).
		Delete(&AccountModel{}, "provider = ? AND provider_account_id = ?", provider, providerAccountID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// sessions

// CreateSession inserts a session row.
func (s *GormStore) CreateSession(ctx context.Context, sess domain.Session) error {
	model := sessionToModel(sess)
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetSession returns a session by token; ok=false when absent.
func (s *GormStore) GetSession(ctx context.Context, token string) (domain.Session, bool, error) {
	var model SessionModel
	if err := s.db.WithContext(ctx).First(&model, "session_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}
	return sessionFromModel(model), true, nil
}

// UpdateSession rewrites a session's expiry.
func (s *GormStore) UpdateSession(ctx context.Context, token string, expires time.Time) (domain.Session, error) {
	res := s.db.WithContext(ctx).Model(&SessionModel{}).
		Where("session_token = ?", token).
		Update("expires", expires)
	if res.Error != nil {
		return domain.Session{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Session{}, ErrNotFound
	}
	sess, _, err := s.GetSession(ctx, token)
	return sess, err
}

// DeleteSession removes a session row; deleting a missing token is a no-op.
func (s *GormStore) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&SessionModel{}, "session_token = ?", token).Error
}

// verification tokens

// CreateVerificationToken inserts a one-time token row.
func (s *GormStore) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	model := VerificationTokenModel{
		Identifier: t.Identifier,
		TokenHash:  t.TokenHash,
		Expires:    t.Expires,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// UseVerificationToken redeems a token exactly once. The stored hash is
// bcrypt, so candidate rows are fetched by identifier under a row lock and
// compared in Go; the matching row is deleted in the same transaction.
func (s *GormStore) UseVerificationToken(ctx context.Context, identifier, token string) (*domain.VerificationToken, error) {
	var used *domain.VerificationToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []VerificationTokenModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identifier = ?", identifier).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			if bcrypt.CompareHashAndPassword([]byte(row.TokenHash), []byte(token)) != nil {
				continue
			}
			if err := tx.Delete(&VerificationTokenModel{}, "identifier = ? AND token_hash = ?", row.Identifier, row.TokenHash).Error; err != nil {
				return err
			}
			used = &domain.VerificationToken{
				Identifier: row.Identifier,
				TokenHash:  row.TokenHash,
				Expires:    row.Expires,
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return used, nil
}

// categories

// CreateCategory inserts a category.
func (s *GormStore) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	model := CategoryModel{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return categoryFromModel(model), nil
}

// ListCategories returns all categories ordered by name.
func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(models))
	for _, m := range models {
		out = append(out, categoryFromModel(m))
	}
	return out, nil
}

// products

// CreateProduct inserts a product row.
func (s *GormStore) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	model := productToModel(p)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return productFromModel(model), nil
}

// GetProduct returns a product by id; ok=false when absent.
func (s *GormStore) GetProduct(ctx context.Context, id string) (domain.Product, bool, error) {
	var model ProductModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, err
	}
	return productFromModel(model), true, nil
}

// UpdateProduct applies a partial update and returns the new row.
func (s *GormStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		fields["price"] = *patch.Price
	}
	if patch.ImageURL != nil {
		fields["image_url"] = *patch.ImageURL
	}
	if patch.SKU != nil {
		fields["sku"] = *patch.SKU
	}
	if patch.Brand != nil {
		fields["brand"] = *patch.Brand
	}
	if patch.InStock != nil {
		fields["in_stock"] = *patch.InStock
	}
	if patch.CategoryID != nil {
		fields["category_id"] = *patch.CategoryID
	}
	var model ProductModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&model).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return domain.Product{}, err
	}
	return productFromModel(model), nil
}

// DeleteProduct removes a product row.
func (s *GormStore) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&ProductModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns a page of products ordered by creation time descending.
func (s *GormStore) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, string, error) {
	limit := ClampLimit(f.Limit)
	q := s.db.WithContext(ctx).Model(&ProductModel{})
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ? OR sku ILIKE ?", like, like, like)
	}
	q, empty, err := s.afterCursor(ctx, q, &ProductModel{}, f.Cursor)
	if err != nil {
		return nil, "", err
	}
	if empty {
		return []domain.Product{}, "", nil
	}
	var models []ProductModel
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, "", err
	}
	models, next := CutPage(models, limit, func(m ProductModel) string { return m.ID })
	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, productFromModel(m))
	}
	return products, next, nil
}

// quotations

// CreateQuotationWithItems inserts a quotation and all its items in one
// transaction. Referenced products are verified inside the transaction so
// a concurrent product delete rolls the whole write back.
func (s *GormStore) CreateQuotationWithItems(ctx context.Context, q domain.Quotation, items []domain.QuotationItem) (domain.Quotation, error) {
	if q.ID == "" {
		q.ID = NewID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := uniqueProductIDs(items)
		var count int64
		if err := tx.Model(&ProductModel{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return fmt.Errorf("referenced product: %w", ErrNotFound)
		}
		model := QuotationModel{
			ID:          q.ID,
			Title:       q.Title,
			ClientID:    q.ClientID,
			CreatedByID: q.CreatedByID,
			Status:      string(q.Status),
			TotalAmount: q.TotalAmount,
			Notes:       q.Notes,
			ValidUntil:  q.ValidUntil,
			CreatedAt:   q.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = NewID()
			items[i].QuotationID = q.ID
			im := itemToModel(items[i])
			im.CreatedAt = time.Now().UTC()
			if err := tx.Create(&im).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Quotation{}, err
	}
	created, _, err := s.GetQuotation(ctx, q.ID)
	return created, err
}

// GetQuotation returns a quotation hydrated with items, attachments, and
// client/creator references; ok=false when absent.
func (s *GormStore) GetQuotation(ctx context.Context, id string) (domain.Quotation, bool, error) {
	var model QuotationModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Quotation{}, false, nil
		}
		return domain.Quotation{}, false, err
	}
	q := quotationFromModel(model)
	if err := s.hydrateQuotations(ctx, []*domain.Quotation{&q}); err != nil {
		return domain.Quotation{}, false, err
	}
	return q, true, nil
}

// ListQuotations returns a page of quotations under the caller's scope.
func (s *GormStore) ListQuotations(ctx context.Context, f QuotationFilter) ([]domain.Quotation, string, error) {
	limit := ClampLimit(f.Limit)
	q := s.db.WithContext(ctx).Model(&QuotationModel{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.CreatedByID != "" {
		q = q.Where("created_by_id = ?", f.CreatedByID)
	}
	if f.ClientID != "" {
		q = q.Where("client_id = ?", f.ClientID)
	}
	q, empty, err := s.afterCursor(ctx, q, &QuotationModel{}, f.Cursor)
	if err != nil {
		return nil, "", err
	}
	if empty {
		return []domain.Quotation{}, "", nil
	}
	var models []QuotationModel
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, "", err
	}
	models, next := CutPage(models, limit, func(m QuotationModel) string { return m.ID })
	quotations := make([]domain.Quotation, 0, len(models))
	refs := make([]*domain.Quotation, 0, len(models))
	for _, m := range models {
		quotations = append(quotations, quotationFromModel(m))
	}
	for i := range quotations {
		refs = append(refs, &quotations[i])
	}
	if err := s.hydrateQuotations(ctx, refs); err != nil {
		return nil, "", err
	}
	return quotations, next, nil
}

// UpdateQuotation applies a metadata patch and returns the hydrated row.
func (s *GormStore) UpdateQuotation(ctx context.Context, id string, patch QuotationPatch) (domain.Quotation, error) {
	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if patch.ValidUntil != nil {
		fields["valid_until"] = *patch.ValidUntil
	}
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&QuotationModel{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return domain.Quotation{}, res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Quotation{}, ErrNotFound
		}
	}
	q, ok, err := s.GetQuotation(ctx, id)
	if err != nil {
		return domain.Quotation{}, err
	}
	if !ok {
		return domain.Quotation{}, ErrNotFound
	}
	return q, nil
}

// ReplaceQuotationItems reconciles items by id and recomputes the total.
func (s *GormStore) ReplaceQuotationItems(ctx context.Context, quotationID string, items []domain.QuotationItem) (domain.Quotation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []QuotationItemModel
		if err := tx.Where("quotation_id = ?", quotationID).Find(&existing).Error; err != nil {
			return err
		}
		existingIDs := make(map[string]bool, len(existing))
		for _, it := range existing {
			existingIDs[it.ID] = true
		}

		kept := make(map[string]bool, len(items))
		reconciled := make([]domain.QuotationItem, 0, len(items))
		for _, it := range items {
			it.QuotationID = quotationID
			switch {
			case it.ID == "":
				it.ID = NewID()
				im := itemToModel(it)
				im.CreatedAt = time.Now().UTC()
				if err := tx.Create(&im).Error; err != nil {
					return err
				}
				reconciled = append(reconciled, it)
			case existingIDs[it.ID]:
				kept[it.ID] = true
				updates := map[string]any{
					"product_id": it.ProductID,
					"quantity":   it.Quantity,
					"unit_price": it.UnitPrice,
					"discount":   it.Discount,
				}
				if err := tx.Model(&QuotationItemModel{}).Where("id = ?", it.ID).Updates(updates).Error; err != nil {
					return err
				}
				reconciled = append(reconciled, it)
			default:
				// Unknown item id: neither an insert nor a matching
				// update target; skipped, like the update branch of a
				// reconcile that misses.
			}
		}

		for _, it := range existing {
			if !kept[it.ID] {
				if err := tx.Delete(&QuotationItemModel{}, "id = ?", it.ID).Error; err != nil {
					return err
				}
			}
		}

		total := domain.ItemsTotal(reconciled)
		res := tx.Model(&QuotationModel{}).Where("id = ?", quotationID).Update("total_amount", total)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Quotation{}, err
	}
	q, ok, err := s.GetQuotation(ctx, quotationID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if !ok {
		return domain.Quotation{}, ErrNotFound
	}
	return q, nil
}

// DeleteQuotationCascade removes items, attachments, then the quotation
// row in FK-safe order, all in one transaction.
func (s *GormStore) DeleteQuotationCascade(ctx context.Context, id string) ([]domain.Attachment, error) {
	var removed []domain.Attachment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attachments []AttachmentModel
		if err := tx.Where("quotation_id = ?", id).Find(&attachments).Error; err != nil {
			return err
		}
		if err := tx.Delete(&QuotationItemModel{}, "quotation_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&AttachmentModel{}, "quotation_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&QuotationModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, a := range attachments {
			removed = append(removed, attachmentFromModel(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// attachments

// AddAttachment inserts an attachment row.
func (s *GormStore) AddAttachment(ctx context.Context, a domain.Attachment) (domain.Attachment, error) {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	model, err := attachmentToModel(a)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("encode attachment metadata: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Attachment{}, fmt.Errorf("create attachment: %w", err)
	}
	return attachmentFromModel(model), nil
}

// GetAttachment returns an attachment by id; ok=false when absent.
func (s *GormStore) GetAttachment(ctx context.Context, id string) (domain.Attachment, bool, error) {
	var model AttachmentModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attachment{}, false, nil
		}
		return domain.Attachment{}, false, err
	}
	return attachmentFromModel(model), true, nil
}

// DeleteAttachment removes an attachment row.
func (s *GormStore) DeleteAttachment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&AttachmentModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// helpers

// afterCursor constrains q to rows at or after the cursor row in
// (created_at DESC, id DESC) order. The cursor row itself is included,
// matching the over-fetch pagination contract. empty=true when the cursor
// no longer exists.
func (s *GormStore) afterCursor(ctx context.Context, q *gorm.DB, model any, cursor string) (*gorm.DB, bool, error) {
	if cursor == "" {
		return q, false, nil
	}
	row := struct {
		ID        string
		CreatedAt time.Time
	}{}
	err := s.db.WithContext(ctx).Model(model).
		Select("id", "created_at").
		Where("id = ?", cursor).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return q, true, nil
		}
		return nil, false, err
	}
	q = q.Where("created_at < ? OR (created_at = ? AND id <= ?)", row.CreatedAt, row.CreatedAt, row.ID)
	return q, false, nil
}

func (s *GormStore) hydrateQuotations(ctx context.Context, quotations []*domain.Quotation) error {
	if len(quotations) == 0 {
		return nil
	}
	ids := make([]string, 0, len(quotations))
	userIDs := make(map[string]bool)
	for _, q := range quotations {
		ids = append(ids, q.ID)
		userIDs[q.ClientID] = true
		userIDs[q.CreatedByID] = true
	}

	var items []QuotationItemModel
	if err := s.db.WithContext(ctx).
		Where("quotation_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return err
	}
	itemsByQuotation := make(map[string][]domain.QuotationItem)
	for _, m := range items {
		itemsByQuotation[m.QuotationID] = append(itemsByQuotation[m.QuotationID], itemFromModel(m))
	}

	var attachments []AttachmentModel
	if err := s.db.WithContext(ctx).
		Where("quotation_id IN ?", ids).
		Order("created_at ASC").
		Find(&attachments).Error; err != nil {
		return err
	}
	attachmentsByQuotation := make(map[string][]domain.Attachment)
	for _, m := range attachments {
		attachmentsByQuotation[m.QuotationID] = append(attachmentsByQuotation[m.QuotationID], attachmentFromModel(m))
	}

	uids := make([]string, 0, len(userIDs))
	for id := range userIDs {
		uids = append(uids, id)
	}
	var users []UserModel
	if err := s.db.WithContext(ctx).Where("id IN ?", uids).Find(&users).Error; err != nil {
		return err
	}
	refs := make(map[string]*domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	for _, q := range quotations {
		q.Items = itemsByQuotation[q.ID]
		q.Attachments = attachmentsByQuotation[q.ID]
		q.Client = refs[q.ClientID]
		q.CreatedBy = refs[q.CreatedByID]
	}
	return nil
}

func uniqueProductIDs(items []domain.QuotationItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
