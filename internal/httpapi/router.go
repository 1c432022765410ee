// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Rate limits for the public surface. Reads are generous; the form
// endpoints are tight because they write.
const (
	readRPS    = 20.0
	readBurst  = 40
	writeRPS   = 0.5
	writeBurst = 3
)

// Routes assembles the full router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(s.logger))
	r.Use(SecurityHeaders)
	r.Use(CORS(s.cfg.CORSOrigins))
	r.Use(RateLimit(readRPS, readBurst))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{slug}", s.handleGetProject)
		r.Get("/services", s.handleListServices)
		r.Get("/articles", s.handleListArticles)
		r.Get("/articles/{slug}", s.handleGetArticle)
		r.Get("/testimonials", s.handleListTestimonials)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(writeRPS, writeBurst))
			if s.cfg.CSRFKey != "" {
				r.Use(CSRF([]byte(s.cfg.CSRFKey), s.cfg.CORSOrigins, s.logger))
			}
			r.Post("/inquiries", s.handleSubmitInquiry)
		})

		r.Post("/track", s.handleTrack)

		if s.cfg.AdminAPIEnabled() {
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdminToken)
				r.Get("/stats/daily", s.handleDailyStats)
				r.Group(func(r chi.Router) {
					r.Use(s.requireAuthConfigured)
					r.Post("/session/check", s.handleAdminSessionCheck)
					r.Post("/session/signout", s.handleAdminSessionSignOut)
				})
			})
		}
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(s.requireAuthConfigured)
		r.Get("/login/{provider}", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Get("/session", s.handleSession)
		r.Post("/session/refresh", s.handleRefresh)
		r.Post("/session/extend", s.handleExtendSession)
		r.Post("/profile/ensure", s.handleEnsureProfile)
		r.Post("/signout", s.handleSignOut)
	})

	return r
}

// Handler returns the router as a plain http.Handler.
func (s *Server) Handler() http.Handler {
	return s.Routes()
}
