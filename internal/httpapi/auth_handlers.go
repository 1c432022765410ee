// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/folio-labs/folio-go/internal/auth"
)

const sessionCookie = "folio_session"

// authService is the slice of the auth service the HTTP layer needs.
type authService interface {
	SignInWithOAuth(ctx context.Context, provider string) (string, error)
	HandleOAuthCallback(ctx context.Context, state, code string) (*auth.LoginResult, error)
	GetSession(token string) (*auth.Session, error)
	IsSessionValid(sess *auth.Session) bool
	ShouldRefreshSession(sess *auth.Session) bool
	RefreshSession(ctx context.Context, token string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	ExtendSession(ctx context.Context, userID string) error
	IsSessionExtended(ctx context.Context, userID string) bool
	IsAdmin(ctx context.Context, userID string) (bool, error)
	EnsureUserProfile(ctx context.Context, userID string) (auth.ProfileStatus, error)
}

// sessionToken pulls the session token from the cookie or, failing
// that, a bearer Authorization header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireAuthConfigured answers 503 when no identity provider is
// configured; the handlers behind it do their own session checks.
func (s *Server) requireAuthConfigured(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			writeError(w, http.StatusServiceUnavailable, "authentication not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !s.cfg.IsDevelopment(),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !s.cfg.IsDevelopment(),
	})
}

// handleLogin starts the OAuth consent flow and redirects the browser
// to the provider.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := s.auth.SignInWithOAuth(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			writeError(w, http.StatusNotFound, "unknown provider")
			return
		}
		s.serverError(w, "starting sign-in", err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleCallback completes the OAuth flow. Reloading the callback page
// re-sends the same state and is answered with the existing session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "state and code are required")
		return
	}

	result, err := s.auth.HandleOAuthCallback(r.Context(), state, code)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			writeError(w, http.StatusBadRequest, "unknown or expired state")
			return
		}
		s.serverError(w, "completing sign-in", err)
		return
	}

	s.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, result)
}

// sessionResponse is what GET /auth/session returns.
type sessionResponse struct {
	Session       *auth.Session `json:"session"`
	Valid         bool          `json:"valid"`
	ShouldRefresh bool          `json:"should_refresh"`
	Extended      bool          `json:"extended"`
	IsAdmin       bool          `json:"is_admin"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.GetSession(sessionToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	isAdmin, err := s.auth.IsAdmin(r.Context(), sess.UserID)
	if err != nil {
		s.logger.Warn("admin check failed", "user_id", sess.UserID, "error", err)
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session:       sess,
		Valid:         s.auth.IsSessionValid(sess),
		ShouldRefresh: s.auth.ShouldRefreshSession(sess),
		Extended:      s.auth.IsSessionExtended(r.Context(), sess.UserID),
		IsAdmin:       isAdmin,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	sess, err := s.auth.RefreshSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		s.serverError(w, "refreshing session", err)
		return
	}
	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context(), sessionToken(r)); err != nil {
		s.logger.Warn("sign-out cleanup failed", "error", err)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExtendSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.GetSession(sessionToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}
	if err := s.auth.ExtendSession(r.Context(), sess.UserID); err != nil {
		s.serverError(w, "extending session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnsureProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.GetSession(sessionToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}
	status, err := s.auth.EnsureUserProfile(r.Context(), sess.UserID)
	if err != nil {
		s.serverError(w, "ensuring profile", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// requireAdminToken guards the admin debug endpoints with a static
// bearer token whose argon2id hash is configured out of band. With no
// hash configured the endpoints do not exist.
func (s *Server) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ok, err := auth.VerifyToken(strings.TrimPrefix(h, "Bearer "), s.cfg.AdminTokenHash)
		if err != nil || !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionCheckRequest struct {
	Token string `json:"token"`
}

// handleAdminSessionCheck reports the state of an arbitrary session
// token. Debug tooling for support, behind the admin token.
func (s *Server) handleAdminSessionCheck(w http.ResponseWriter, r *http.Request) {
	var req sessionCheckRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	sess, err := s.auth.GetSession(req.Token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":         true,
		"user_id":        sess.UserID,
		"provider":       sess.Provider,
		"expires_at":     sess.ExpiresAt,
		"valid":          s.auth.IsSessionValid(sess),
		"should_refresh": s.auth.ShouldRefreshSession(sess),
	})
}

// handleAdminSessionSignOut force-terminates an arbitrary session.
func (s *Server) handleAdminSessionSignOut(w http.ResponseWriter, r *http.Request) {
	var req sessionCheckRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := s.auth.SignOut(r.Context(), req.Token); err != nil {
		s.serverError(w, "terminating session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
