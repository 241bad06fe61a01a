package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quotedesk/pkg/domain"
)

// MemoryStore is an in-memory Store for tests and local development.
// A single mutex serializes every operation, so the multi-row writes are
// atomic by construction.
type MemoryStore struct {
	mu sync.Mutex

	users       map[string]domain.User
	accounts    map[string]domain.Account // keyed provider|providerAccountID
	sessions    map[string]domain.Session
	tokens      []domain.VerificationToken
	categories  map[string]domain.Category
	products    map[string]domain.Product
	quotations  map[string]domain.Quotation
	items       map[string][]domain.QuotationItem // by quotation id, insertion order
	attachments map[string]domain.Attachment
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		accounts:    make(map[string]domain.Account),
		sessions:    make(map[string]domain.Session),
		categories:  make(map[string]domain.Category),
		products:    make(map[string]domain.Product),
		quotations:  make(map[string]domain.Quotation),
		items:       make(map[string][]domain.QuotationItem),
		attachments: make(map[string]domain.Attachment),
	}
}

func accountKey(provider, providerAccountID string) string {
	return provider + "|" + providerAccountID
}

// users

func (s *MemoryStore) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.User{}, fmt.Errorf("create user: email already exists")
		}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByAccount(_ context.Context, provider, providerAccountID string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountKey(provider, providerAccountID)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := s.users[a.UserID]
	return u, ok, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, patch UserPatch) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.EmailVerified != nil {
		v := *patch.EmailVerified
		u.EmailVerified = &v
	}
	if patch.Image != nil {
		u.Image = *patch.Image
	}
	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context, f UserFilter) ([]domain.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		matched = append(matched, u)
	}
	sortNewestFirst(matched, func(u domain.User) (time.Time, string) { return u.CreatedAt, u.ID })
	matched = fromCursor(matched, f.Cursor, func(u domain.User) string { return u.ID })
	limit := ClampLimit(f.Limit)
	page, next := CutPage(over(matched, limit), limit, func(u domain.User) string { return u.ID })
	return page, next, nil
}

func (s *MemoryStore) UserCounts(_ context.Context, id string) (domain.UserCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts domain.UserCounts
	for _, p := range s.products {
		if p.UserID == id {
			counts.Products++
		}
	}
	for _, q := range s.quotations {
		if q.CreatedByID == id {
			counts.Quotations++
		}
		if q.ClientID == id {
			counts.ClientQuotations++
		}
	}
	return counts, nil
}

// provider accounts

func (s *MemoryStore) LinkAccount(_ context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = NewID()
	}
	key := accountKey(a.Provider, a.ProviderAccountID)
	if _, ok := s.accounts[key]; ok {
		return fmt.Errorf("link account: pair already linked")
	}
	s.accounts[key] = a
	return nil
}

func (s *MemoryStore) UnlinkAccount(_ context.Context, provider, providerAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey(provider, providerAccountID)
	if _, ok := s.accounts[key]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, key)
	return nil
}

// sessions

func (s *MemoryStore) CreateSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionToken] = sess
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, token string) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok, nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, token string, expires time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	sess.Expires = expires
	s.sessions[token] = sess
	return sess, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// verification tokens

func (s *MemoryStore) CreateVerificationToken(_ context.Context, t domain.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, t)
	return nil
}

func (s *MemoryStore) UseVerificationToken(_ context.Context, identifier, token string) (*domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tokens {
		if t.Identifier != identifier {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(t.TokenHash), []byte(token)) != nil {
			continue
		}
		s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
		used := t
		return &used, nil
	}
	return nil, nil
}

// categories

func (s *MemoryStore) CreateCategory(_ context.Context, c domain.Category) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return domain.Category{}, fmt.Errorf("create category: name already exists")
		}
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// products

func (s *MemoryStore) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (domain.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id string, patch ProductPatch) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	s.products[id] = p
	return p, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) ListProducts(_ context.Context, f ProductFilter) ([]domain.Product, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Search != "" &&
			!containsFold(p.Name, f.Search) &&
			!containsFold(p.Description, f.Search) &&
			!containsFold(p.SKU, f.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sortNewestFirst(matched, func(p domain.Product) (time.Time, string) { return p.CreatedAt, p.ID })
	matched = fromCursor(matched, f.Cursor, func(p domain.Product) string { return p.ID })
	limit := ClampLimit(f.Limit)
	page, next := CutPage(over(matched, limit), limit, func(p domain.Product) string { return p.ID })
	return page, next, nil
}

// quotations

func (s *MemoryStore) CreateQuotationWithItems(_ context.Context, q domain.Quotation, items []domain.QuotationItem) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if _, ok := s.products[it.ProductID]; !ok {
			return domain.Quotation{}, fmt.Errorf("referenced product: %w", ErrNotFound)
		}
	}
	if q.ID == "" {
		q.ID = NewID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	stored := make([]domain.QuotationItem, 0, len(items))
	for _, it := range items {
		it.ID = NewID()
		it.QuotationID = q.ID
		stored = append(stored, it)
	}
	s.quotations[q.ID] = q
	s.items[q.ID] = stored
	return s.hydrateLocked(q), nil
}

func (s *MemoryStore) GetQuotation(_ context.Context, id string) (domain.Quotation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[id]
	if !ok {
		return domain.Quotation{}, false, nil
	}
	return s.hydrateLocked(q), true, nil
}

func (s *MemoryStore) ListQuotations(_ context.Context, f QuotationFilter) ([]domain.Quotation, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.Quotation, 0, len(s.quotations))
	for _, q := range s.quotations {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.CreatedByID != "" && q.CreatedByID != f.CreatedByID {
			continue
		}
		if f.ClientID != "" && q.ClientID != f.ClientID {
			continue
		}
		matched = append(matched, q)
	}
	sortNewestFirst(matched, func(q domain.Quotation) (time.Time, string) { return q.CreatedAt, q.ID })
	matched = fromCursor(matched, f.Cursor, func(q domain.Quotation) string { return q.ID })
	limit := ClampLimit(f.Limit)
	page, next := CutPage(over(matched, limit), limit, func(q domain.Quotation) string { return q.ID })
	for i := range page {
		page[i] = s.hydrateLocked(page[i])
	}
	return page, next, nil
}

func (s *MemoryStore) UpdateQuotation(_ context.Context, id string, patch QuotationPatch) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[id]
	if !ok {
		return domain.Quotation{}, ErrNotFound
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Notes != nil {
		q.Notes = *patch.Notes
	}
	if patch.ValidUntil != nil {
		v := *patch.ValidUntil
		q.ValidUntil = &v
	}
	if patch.Status != nil {
		q.Status = *patch.Status
	}
	s.quotations[id] = q
	return s.hydrateLocked(q), nil
}

func (s *MemoryStore) ReplaceQuotationItems(_ context.Context, quotationID string, items []domain.QuotationItem) (domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[quotationID]
	if !ok {
		return domain.Quotation{}, ErrNotFound
	}
	existing := s.items[quotationID]
	existingIDs := make(map[string]bool, len(existing))
	for _, it := range existing {
		existingIDs[it.ID] = true
	}
	reconciled := make([]domain.QuotationItem, 0, len(items))
	for _, it := range items {
		it.QuotationID = quotationID
		switch {
		case it.ID == "":
			it.ID = NewID()
			reconciled = append(reconciled, it)
		case existingIDs[it.ID]:
			reconciled = append(reconciled, it)
		}
	}
	s.items[quotationID] = reconciled
	q.TotalAmount = domain.ItemsTotal(reconciled)
	s.quotations[quotationID] = q
	return s.hydrateLocked(q), nil
}

func (s *MemoryStore) DeleteQuotationCascade(_ context.Context, id string) ([]domain.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotations[id]; !ok {
		return nil, ErrNotFound
	}
	var removed []domain.Attachment
	for aid, a := range s.attachments {
		if a.QuotationID == id {
			removed = append(removed, a)
			delete(s.attachments, aid)
		}
	}
	delete(s.items, id)
	delete(s.quotations, id)
	return removed, nil
}

// attachments

func (s *MemoryStore) AddAttachment(_ context.Context, a domain.Attachment) (domain.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.attachments[a.ID] = a
	return a, nil
}

func (s *MemoryStore) GetAttachment(_ context.Context, id string) (domain.Attachment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	return a, ok, nil
}

func (s *MemoryStore) DeleteAttachment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attachments[id]; !ok {
		return ErrNotFound
	}
	delete(s.attachments, id)
	return nil
}

// helpers

// hydrateLocked fills items, attachments, and user refs; callers hold mu.
func (s *MemoryStore) hydrateLocked(q domain.Quotation) domain.Quotation {
	q.Items = append([]domain.QuotationItem(nil), s.items[q.ID]...)
	q.Attachments = nil
	for _, a := range s.attachments {
		if a.QuotationID == q.ID {
			q.Attachments = append(q.Attachments, a)
		}
	}
	sort.Slice(q.Attachments, func(i, j int) bool { return q.Attachments[i].CreatedAt.Before(q.Attachments[j].CreatedAt) })
	if u, ok := s.users[q.ClientID]; ok {
		q.Client = &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	if u, ok := s.users[q.CreatedByID]; ok {
		q.CreatedBy = &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return q
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortNewestFirst orders by (createdAt DESC, id DESC), matching the SQL
// listing order.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

// fromCursor drops rows before the cursor row; the cursor row itself
// starts the page. A stale cursor yields an empty page.
func fromCursor[T any](items []T, cursor string, id func(T) string) []T {
	if cursor == "" {
		return items
	}
	for i, it := range items {
		if id(it) == cursor {
			return items[i:]
		}
	}
	return nil
}

// over trims to at most limit+1 rows before CutPage.
func over[T any](items []T, limit int) []T {
	if len(items) > limit+1 {
		return items[:limit+1]
	}
	return items
}
