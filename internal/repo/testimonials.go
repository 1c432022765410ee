// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"

	"github.com/folio-labs/folio-go/internal/model"
)

// TestimonialRepository provides persistence operations for client
// testimonials.
type TestimonialRepository struct {
	*Repository[model.Testimonial]
}

func testimonialMapper() Mapper[model.Testimonial] {
	return Mapper[model.Testimonial]{
		Table: "testimonials",
		Columns: []string{"id", "author", "role", "company", "quote", "rating",
			"featured", "status", "sort_order", "created_at", "updated_at"},
		Scan: func(s Scanner) (*model.Testimonial, error) {
			var t model.Testimonial
			var featured int64
			err := s.Scan(&t.ID, &t.Author, &t.Role, &t.Company, &t.Quote, &t.Rating,
				&featured, &t.Status, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
			if err != nil {
				return nil, err
			}
			t.Featured = featured != 0
			return &t, nil
		},
		DefaultOrderBy:   "sort_order",
		DefaultAscending: true,
	}
}

// NewTestimonialRepository creates a new testimonial repository.
func NewTestimonialRepository(db *sql.DB) *TestimonialRepository {
	return &TestimonialRepository{Repository: NewRepository(db, testimonialMapper())}
}

// Published returns all published testimonials in display order.
func (r *TestimonialRepository) Published(ctx context.Context) ([]model.Testimonial, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished},
	})
}

// Featured returns published testimonials flagged as featured.
func (r *TestimonialRepository) Featured(ctx context.Context) ([]model.Testimonial, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "featured": true},
	})
}

// ByRating returns published testimonials with the given rating.
func (r *TestimonialRepository) ByRating(ctx context.Context, rating int) ([]model.Testimonial, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": model.StatusPublished, "rating": rating},
	})
}
