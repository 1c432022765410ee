// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/folio-labs/folio-go/internal/model"
)

// ArticleRepository provides persistence operations for blog articles.
type ArticleRepository struct {
	*Repository[model.Article]
	logger *slog.Logger
}

func articleMapper() Mapper[model.Article] {
	return Mapper[model.Article]{
		Table: "articles",
		Columns: []string{"id", "title", "slug", "excerpt", "body", "category", "tags",
			"featured", "status", "published_at", "view_count", "created_at", "updated_at"},
		Scan: func(s Scanner) (*model.Article, error) {
			var a model.Article
			var featured int64
			err := s.Scan(&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Body, &a.Category, &a.Tags,
				&featured, &a.Status, &a.PublishedAt, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt)
			if err != nil {
				return nil, err
			}
			a.Featured = featured != 0
			return &a, nil
		},
		DefaultOrderBy:   "published_at",
		DefaultAscending: false,
	}
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sql.DB, logger *slog.Logger) *ArticleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleRepository{
		Repository: NewRepository(db, articleMapper()),
		logger:     logger,
	}
}

// Published returns all published articles, most recent first.
func (r *ArticleRepository) Published(ctx context.Context) ([]model.Article, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished},
	})
}

// Featured returns published articles flagged as featured.
func (r *ArticleRepository) Featured(ctx context.Context) ([]model.Article, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "featured": true},
	})
}

// ByCategory returns published articles in the given category.
func (r *ArticleRepository) ByCategory(ctx context.Context, category string) ([]model.Article, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "category": category},
	})
}

// BySlug returns the article with the given slug, or nil if none exists.
func (r *ArticleRepository) BySlug(ctx context.Context, slug string) (*model.Article, error) {
	return r.GetBy(ctx, "slug", slug)
}

// PublishedPaginated returns one page of published articles. An empty
// category matches all categories.
func (r *ArticleRepository) PublishedPaginated(ctx context.Context, page, perPage int, category string) (PageResult[model.Article], error) {
	filters := map[string]any{"status": model.StatusPublished}
	if category != "" {
		filters["category"] = category
	}
	return r.GetPaginated(ctx, PageOptions{Page: page, PerPage: perPage, Filters: filters})
}

// IncrementViews bumps the article's view counter. Failures are logged
// and swallowed so they never block the read path.
func (r *ArticleRepository) IncrementViews(ctx context.Context, id int64) {
	if err := r.Increment(ctx, id, "view_count"); err != nil {
		r.logger.Warn("failed to increment article views", "id", id, "error", err)
	}
}
