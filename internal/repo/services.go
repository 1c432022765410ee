// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"

	"github.com/folio-labs/folio-go/internal/model"
)

// ServiceRepository provides persistence operations for service offerings.
type ServiceRepository struct {
	*Repository[model.Service]
}

func serviceMapper() Mapper[model.Service] {
	return Mapper[model.Service]{
		Table: "services",
		Columns: []string{"id", "title", "slug", "summary", "body", "icon",
			"priority", "featured", "status", "created_at", "updated_at"},
		Scan: func(s Scanner) (*model.Service, error) {
			var sv model.Service
			var featured int64
			err := s.Scan(&sv.ID, &sv.Title, &sv.Slug, &sv.Summary, &sv.Body, &sv.Icon,
				&sv.Priority, &featured, &sv.Status, &sv.CreatedAt, &sv.UpdatedAt)
			if err != nil {
				return nil, err
			}
			sv.Featured = featured != 0
			return &sv, nil
		},
		DefaultOrderBy:   "priority",
		DefaultAscending: true,
	}
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{Repository: NewRepository(db, serviceMapper())}
}

// Published returns all published services ordered by priority.
func (r *ServiceRepository) Published(ctx context.Context) ([]model.Service, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished},
	})
}

// Featured returns published services flagged as featured.
func (r *ServiceRepository) Featured(ctx context.Context) ([]model.Service, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "featured": true},
	})
}

// BySlug returns the service with the given slug, or nil if none exists.
func (r *ServiceRepository) BySlug(ctx context.Context, slug string) (*model.Service, error) {
	return r.GetBy(ctx, "slug", slug)
}
