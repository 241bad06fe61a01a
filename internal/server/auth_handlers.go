package server

import (
	"errors"
	"net/http"
	"time"

	"quotedesk/internal/auth"
	"quotedesk/internal/util"
	"quotedesk/pkg/domain"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "auth not configured")
		return
	}
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	err := s.auth.SignIn(r.Context(), in.Email, util.ClientIP(r, s.trustProxy))
	switch {
	case errors.Is(err, auth.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	case errors.Is(err, auth.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, codeValidation, err.Error())
		return
	case err != nil:
		writeAppError(w, err)
		return
	}
	// Same response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{"status": "link sent"})
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "auth not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	user, token, err := s.auth.Callback(r.Context(), q.Get("identifier"), q.Get("token"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSignInLink) {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
			return
		}
		writeAppError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"sessionToken": token,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "auth not configured")
		return
	}
	token, _ := sessionToken(r)
	if err := s.auth.SignOut(r.Context(), token); err != nil {
		writeAppError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
