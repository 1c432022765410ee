// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/folio-labs/folio-go/internal/model"
)

// ProjectRepository provides persistence operations for portfolio projects.
type ProjectRepository struct {
	*Repository[model.Project]
	logger *slog.Logger
}

func projectMapper() Mapper[model.Project] {
	return Mapper[model.Project]{
		Table: "projects",
		Columns: []string{"id", "title", "slug", "summary", "body", "category", "tags",
			"year", "featured", "status", "sort_order", "view_count", "created_at", "updated_at"},
		Scan: func(s Scanner) (*model.Project, error) {
			var p model.Project
			var featured int64
			err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Body, &p.Category, &p.Tags,
				&p.Year, &featured, &p.Status, &p.SortOrder, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return nil, err
			}
			p.Featured = featured != 0
			return &p, nil
		},
		DefaultOrderBy:   "year",
		DefaultAscending: false,
	}
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sql.DB, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectRepository{
		Repository: NewRepository(db, projectMapper()),
		logger:     logger,
	}
}

// Published returns all published projects, newest year first.
func (r *ProjectRepository) Published(ctx context.Context) ([]model.Project, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished},
	})
}

// Featured returns published projects flagged as featured.
func (r *ProjectRepository) Featured(ctx context.Context) ([]model.Project, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "featured": true},
	})
}

// ByCategory returns published projects in the given category.
func (r *ProjectRepository) ByCategory(ctx context.Context, category string) ([]model.Project, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "category": category},
	})
}

// BySlug returns the project with the given slug, or nil if none exists.
func (r *ProjectRepository) BySlug(ctx context.Context, slug string) (*model.Project, error) {
	return r.GetBy(ctx, "slug", slug)
}

// PublishedPaginated returns one page of published projects. An empty
// category matches all categories.
func (r *ProjectRepository) PublishedPaginated(ctx context.Context, page, perPage int, category string) (PageResult[model.Project], error) {
	filters := map[string]any{"status": model.StatusPublished}
	if category != "" {
		filters["category"] = category
	}
	return r.GetPaginated(ctx, PageOptions{Page: page, PerPage: perPage, Filters: filters})
}

// IncrementViews bumps the project's view counter. View counts are a
// non-critical side effect: failures are logged and swallowed so they
// never block the read path.
func (r *ProjectRepository) IncrementViews(ctx context.Context, id int64) {
	if err := r.Increment(ctx, id, "view_count"); err != nil {
		r.logger.Warn("failed to increment project views", "id", id, "error", err)
	}
}
