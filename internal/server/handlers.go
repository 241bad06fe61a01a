package server

import (
	"net/http"

	"quotedesk/internal/app"
	"quotedesk/pkg/domain"
)

// products

func (s *Server) handleProductGetAll(w http.ResponseWriter, r *http.Request) {
	var in app.ProductListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := s.app.ListProducts(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleProductGetByID(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.app.GetProduct(r.Context(), in.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.ProductCreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.app.CreateProduct(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.ProductUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.app.UpdateProduct(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := s.app.DeleteProduct(r.Context(), user, in.ID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// categories

func (s *Server) handleCategoryGetAll(w http.ResponseWriter, r *http.Request) {
	var in struct{}
	if !decodeJSON(w, r, &in) {
		return
	}
	categories, err := s.app.ListCategories(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in app.CategoryCreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.app.CreateCategory(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// quotations

func (s *Server) handleQuotationGetAll(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.QuotationListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := s.app.ListQuotations(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleQuotationGetByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := s.app.GetQuotation(r.Context(), user, in.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuotationCreate(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.QuotationCreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := s.app.CreateQuotation(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuotationUpdate(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.QuotationUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := s.app.UpdateQuotation(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuotationUpdateItems(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.QuotationItemsInput
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := s.app.UpdateQuotationItems(r.Context(), user, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuotationDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := s.app.DeleteQuotation(r.Context(), user, in.ID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// users

func (s *Server) handleUserGetAll(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in app.UserListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := s.app.ListUsers(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleUserGetByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.app.GetUser(r.Context(), user, in.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in struct{}
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.app.Me(r.Context(), user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in app.UserUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.app.UpdateUser(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserGetClients(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in app.ClientListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := s.app.GetClients(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
