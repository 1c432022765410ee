// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content exposes the site's read model as a single facade over
// the entity repositories, plus best-effort page-view tracking and a
// database health probe.
package content

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/repo"
)

// Health is the result of a database probe.
type Health struct {
	Status    string        `json:"status"` // "ok" or "error"
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	CheckedAt time.Time     `json:"checked_at"`
}

// OK reports whether the probe succeeded.
func (h Health) OK() bool { return h.Status == "ok" }

// Service bundles the entity repositories behind one object so the
// HTTP layer has a single dependency for all content reads.
type Service struct {
	db           *sql.DB
	Projects     *repo.ProjectRepository
	Services     *repo.ServiceRepository
	Articles     *repo.ArticleRepository
	Inquiries    *repo.InquiryRepository
	Testimonials *repo.TestimonialRepository

	recorder *analytics.Recorder
	logger   *slog.Logger
}

// NewService wires the repositories over one database handle.
func NewService(db *sql.DB, recorder *analytics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:           db,
		Projects:     repo.NewProjectRepository(db, logger),
		Services:     repo.NewServiceRepository(db),
		Articles:     repo.NewArticleRepository(db, logger),
		Inquiries:    repo.NewInquiryRepository(db),
		Testimonials: repo.NewTestimonialRepository(db),
		recorder:     recorder,
		logger:       logger,
	}
}

// TrackPageView records a page view. Tracking never fails the caller:
// errors are logged and swallowed.
func (s *Service) TrackPageView(ctx context.Context, hit analytics.Hit) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, hit); err != nil {
		s.logger.Warn("failed to record page view", "path", hit.Path, "error", err)
	}
}

// HealthCheck probes the database with a trivial query and reports the
// outcome. It never returns an error: a failed probe is a Health with
// Status "error".
func (s *Service) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	h := Health{Status: "ok", CheckedAt: start.UTC()}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		h.Status = "error"
		h.Message = err.Error()
	}

	h.Latency = time.Since(start)
	h.LatencyMS = h.Latency.Milliseconds()
	return h
}

// ArticleBySlugTracked returns a published article and bumps its view
// counter. Draft and archived articles are not visible here.
func (s *Service) ArticleBySlugTracked(ctx context.Context, slug string) (*model.Article, error) {
	a, err := s.Articles.BySlug(ctx, slug)
	if err != nil || a == nil {
		return a, err
	}
	if !a.IsPublished() {
		return nil, nil
	}
	s.Articles.IncrementViews(ctx, a.ID)
	return a, nil
}

// ProjectBySlugTracked returns a published project and bumps its view
// counter.
func (s *Service) ProjectBySlugTracked(ctx context.Context, slug string) (*model.Project, error) {
	p, err := s.Projects.BySlug(ctx, slug)
	if err != nil || p == nil {
		return p, err
	}
	if !p.IsPublished() {
		return nil, nil
	}
	s.Projects.IncrementViews(ctx, p.ID)
	return p, nil
}
