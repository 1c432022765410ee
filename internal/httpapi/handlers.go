// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package httpapi exposes the site's content and session operations as
// a JSON API for the JS frontend.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/captcha"
	"github.com/folio-labs/folio-go/internal/config"
	"github.com/folio-labs/folio-go/internal/content"
	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/render"
	"github.com/folio-labs/folio-go/internal/util"
)

const visitorCookie = "folio_visitor"

// Server bundles the handlers' dependencies.
type Server struct {
	cfg      *config.Config
	content  *content.Service
	auth     authService
	captcha  *captcha.Verifier
	recorder *analytics.Recorder
	logger   *slog.Logger
}

// NewServer creates the API server. auth may be nil when no identity
// provider is configured; the auth routes then answer 503.
func NewServer(cfg *config.Config, svc *content.Service, authSvc authService,
	verifier *captcha.Verifier, recorder *analytics.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		content:  svc,
		auth:     authSvc,
		captcha:  verifier,
		recorder: recorder,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

// pageParams reads ?page= and ?per_page= with sane fallbacks. Out of
// range values are clamped by the repository layer.
func pageParams(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h := s.content.HealthCheck(r.Context())
	status := http.StatusOK
	if !h.OK() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Query().Get("featured") == "true" {
		projects, err := s.content.Projects.Featured(ctx)
		if err != nil {
			s.serverError(w, "listing featured projects", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": projects})
		return
	}

	page, perPage := pageParams(r)
	result, err := s.content.Projects.PublishedPaginated(ctx, page, perPage, r.URL.Query().Get("category"))
	if err != nil {
		s.serverError(w, "listing projects", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// projectResponse and articleResponse add the rendered body to the
// stored row.
type projectResponse struct {
	*model.Project
	BodyHTML string `json:"body_html,omitempty"`
}

type articleResponse struct {
	*model.Article
	BodyHTML string `json:"body_html,omitempty"`
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.content.ProjectBySlugTracked(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.serverError(w, "loading project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	html, err := render.Markdown(p.Body)
	if err != nil {
		s.logger.Warn("failed to render project body", "slug", p.Slug, "error", err)
	}
	writeJSON(w, http.StatusOK, projectResponse{Project: p, BodyHTML: html})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.content.Services.Published(r.Context())
	if err != nil {
		s.serverError(w, "listing services", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": services})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Query().Get("featured") == "true" {
		articles, err := s.content.Articles.Featured(ctx)
		if err != nil {
			s.serverError(w, "listing featured articles", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": articles})
		return
	}

	page, perPage := pageParams(r)
	result, err := s.content.Articles.PublishedPaginated(ctx, page, perPage, r.URL.Query().Get("category"))
	if err != nil {
		s.serverError(w, "listing articles", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.content.ArticleBySlugTracked(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.serverError(w, "loading article", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}

	html, err := render.Markdown(a.Body)
	if err != nil {
		s.logger.Warn("failed to render article body", "slug", a.Slug, "error", err)
	}
	writeJSON(w, http.StatusOK, articleResponse{Article: a, BodyHTML: html})
}

func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var err error
	var testimonials any
	if r.URL.Query().Get("featured") == "true" {
		testimonials, err = s.content.Testimonials.Featured(ctx)
	} else {
		testimonials, err = s.content.Testimonials.Published(ctx)
	}
	if err != nil {
		s.serverError(w, "listing testimonials", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": testimonials})
}

// handleSubmitInquiry accepts the public contact form. Input is
// sanitized to plain text before it is stored, and the captcha token is
// checked when a captcha secret is configured.
func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	name := render.PlainText(r.PostFormValue("name"))
	email := render.PlainText(r.PostFormValue("email"))
	subject := render.PlainText(r.PostFormValue("subject"))
	message := render.PlainText(r.PostFormValue("message"))

	if name == "" || email == "" || message == "" {
		writeError(w, http.StatusBadRequest, "name, email, and message are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	ok, err := s.captcha.Verify(r.Context(), captcha.TokenFromRequest(r), util.ClientIP(r))
	if err != nil {
		s.logger.Error("captcha verification errored", "error", err)
		writeError(w, http.StatusBadGateway, "captcha verification unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "captcha verification failed")
		return
	}

	inquiry, err := s.content.Inquiries.Submit(r.Context(), name, email, subject, message)
	if err != nil {
		s.serverError(w, "storing inquiry", err)
		return
	}

	s.logger.Info("inquiry received", "reference", inquiry.Reference)
	writeJSON(w, http.StatusCreated, map[string]string{
		"reference": inquiry.Reference,
		"status":    inquiry.Status,
	})
}

type trackRequest struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
}

// handleTrack records a page view. Tracking is best effort: the caller
// always gets 204 once the request parses, even if the write fails.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	hit := analytics.Hit{
		Path:      req.Path,
		Title:     req.Title,
		Referrer:  req.Referrer,
		UserAgent: r.UserAgent(),
		IP:        util.ClientIP(r),
		VisitorID: s.visitorID(w, r),
	}
	if s.auth != nil {
		if sess, err := s.auth.GetSession(sessionToken(r)); err == nil {
			hit.UserID = sess.UserID
		}
	}

	s.content.TrackPageView(r.Context(), hit)
	w.WriteHeader(http.StatusNoContent)
}

// visitorID returns the visitor cookie, minting one on first contact.
func (s *Server) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !s.cfg.IsDevelopment(),
	})
	return id
}

// handleDailyStats returns the analytics rollup for one day. Guarded by
// the admin token middleware.
func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	stats, err := s.recorder.DailyStats(r.Context(), day)
	if err != nil {
		s.serverError(w, "loading daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "data": stats})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
