package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"quotedesk/internal/app"
	"quotedesk/internal/auth"
	"quotedesk/internal/util"
	"quotedesk/pkg/domain"
	"quotedesk/pkg/store"
)

// SessionCookie is the cookie carrying the session token for browsers;
// API clients send the same token as a bearer header.
const SessionCookie = "quotedesk_session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Auth     *auth.Service
	Sessions store.SessionStore
	// TrustProxyHeaders says the server runs behind the reverse proxy
	// and forwarded headers identify the real client.
	TrustProxyHeaders bool
	MaxUploadBytes    int64
}

// Server exposes the RPC endpoints.
type Server struct {
	app            *app.App
	auth           *auth.Service
	sessions       store.SessionStore
	trustProxy     bool
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		auth:           cfg.Auth,
		sessions:       cfg.Sessions,
		trustProxy:     cfg.TrustProxyHeaders,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.Handle("/api/rpc/auth.signIn", s.public(s.handleSignIn))
	s.mux.HandleFunc("/api/auth/callback", s.handleAuthCallback)
	s.mux.Handle("/api/rpc/auth.signOut", s.authenticated(s.handleSignOut))

	// products
	s.mux.Handle("/api/rpc/product.getAll", s.public(s.handleProductGetAll))
	s.mux.Handle("/api/rpc/product.getById", s.public(s.handleProductGetByID))
	s.mux.Handle("/api/rpc/product.create", s.distributorOrAdmin(s.handleProductCreate))
	s.mux.Handle("/api/rpc/product.update", s.distributorOrAdmin(s.handleProductUpdate))
	s.mux.Handle("/api/rpc/product.delete", s.distributorOrAdmin(s.handleProductDelete))

	// categories
	s.mux.Handle("/api/rpc/category.getAll", s.public(s.handleCategoryGetAll))
	s.mux.Handle("/api/rpc/category.create", s.adminOnly(s.handleCategoryCreate))

	// quotations
	s.mux.Handle("/api/rpc/quotation.getAll", s.authenticated(s.handleQuotationGetAll))
	s.mux.Handle("/api/rpc/quotation.getById", s.authenticated(s.handleQuotationGetByID))
	s.mux.Handle("/api/rpc/quotation.create", s.authenticated(s.handleQuotationCreate))
	s.mux.Handle("/api/rpc/quotation.update", s.authenticated(s.handleQuotationUpdate))
	s.mux.Handle("/api/rpc/quotation.updateItems", s.authenticated(s.handleQuotationUpdateItems))
	s.mux.Handle("/api/rpc/quotation.delete", s.authenticated(s.handleQuotationDelete))

	// users
	s.mux.Handle("/api/rpc/user.getAll", s.adminOnly(s.handleUserGetAll))
	s.mux.Handle("/api/rpc/user.getById", s.authenticated(s.handleUserGetByID))
	s.mux.Handle("/api/rpc/user.me", s.authenticated(s.handleUserMe))
	s.mux.Handle("/api/rpc/user.update", s.adminOnly(s.handleUserUpdate))
	s.mux.Handle("/api/rpc/user.getClients", s.distributorOrAdmin(s.handleUserGetClients))

	// attachments
	s.mux.Handle("/api/attachments/upload", s.authenticated(s.handleAttachmentUpload))
	s.mux.Handle("/api/rpc/attachment.getURL", s.authenticated(s.handleAttachmentGetURL))
	s.mux.Handle("/api/rpc/attachment.delete", s.authenticated(s.handleAttachmentDelete))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authHandler receives the session user. For plain authenticated routes the
// role comes from the session claim; elevated gates replace it with the
// persisted row first.
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) public(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		next(w, r)
	})
}

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		user, ok := s.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) distributorOrAdmin(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		fresh, ok := s.freshUser(w, r, user)
		if !ok {
			return
		}
		if fresh.Role != domain.RoleDistributor && fresh.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		next(w, r, fresh)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		fresh, ok := s.freshUser(w, r, user)
		if !ok {
			return
		}
		if fresh.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		next(w, r, fresh)
	})
}

// sessionUser resolves the session token into the claimed user.
func (s *Server) sessionUser(r *http.Request) (domain.User, bool) {
	token, ok := sessionToken(r)
	if !ok {
		return domain.User{}, false
	}
	sess, ok, err := s.sessions.Resolve(r.Context(), token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return domain.User{ID: sess.UserID, Role: sess.Role}, true
}

// freshUser replaces the session claim with the persisted user row, so a
// recently demoted account cannot keep using elevated routes.
func (s *Server) freshUser(w http.ResponseWriter, r *http.Request, claimed domain.User) (domain.User, bool) {
	fresh, ok, err := s.app.Store().GetUser(r.Context(), claimed.ID)
	if err != nil {
		slog.Error("load session user", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
		return domain.User{}, false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	return fresh, true
}

// sessionToken pulls the token from the bearer header, falling back to the
// session cookie.
func sessionToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token != "" {
			return token, true
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// decodeJSON reads the RPC input object. An empty body counts as {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const (
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeValidation   = "VALIDATION"
	codeInternal     = "INTERNAL"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

// writeAppError maps application errors onto HTTP statuses and codes.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
}
