// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/folio-labs/folio-go/internal/model"
)

// InquiryRepository provides persistence operations for contact-form
// submissions.
type InquiryRepository struct {
	*Repository[model.Inquiry]
}

func inquiryMapper() Mapper[model.Inquiry] {
	return Mapper[model.Inquiry]{
		Table: "inquiries",
		Columns: []string{"id", "reference", "name", "email", "subject", "message",
			"status", "created_at", "updated_at"},
		Scan: func(s Scanner) (*model.Inquiry, error) {
			var iq model.Inquiry
			err := s.Scan(&iq.ID, &iq.Reference, &iq.Name, &iq.Email, &iq.Subject, &iq.Message,
				&iq.Status, &iq.CreatedAt, &iq.UpdatedAt)
			if err != nil {
				return nil, err
			}
			return &iq, nil
		},
		DefaultOrderBy:   "created_at",
		DefaultAscending: false,
	}
}

// NewInquiryRepository creates a new inquiry repository.
func NewInquiryRepository(db *sql.DB) *InquiryRepository {
	return &InquiryRepository{Repository: NewRepository(db, inquiryMapper())}
}

// Submit records a new contact-form submission and returns the stored
// inquiry with its generated reference.
func (r *InquiryRepository) Submit(ctx context.Context, name, email, subject, message string) (*model.Inquiry, error) {
	return r.Create(ctx, map[string]any{
		"reference": NewInquiryReference(),
		"name":      name,
		"email":     email,
		"subject":   subject,
		"message":   message,
		"status":    model.InquiryStatusNew,
	})
}

// ByReference returns the inquiry with the given reference, or nil if
// none exists.
func (r *InquiryRepository) ByReference(ctx context.Context, reference string) (*model.Inquiry, error) {
	return r.GetBy(ctx, "reference", reference)
}

// ByStatus returns all inquiries with the given status, newest first.
func (r *InquiryRepository) ByStatus(ctx context.Context, status string) ([]model.Inquiry, error) {
	return r.GetAll(ctx, QueryOptions{
		Filters: map[string]any{"status": status},
	})
}

// Paginated returns one page of inquiries, optionally filtered by
// status, newest first.
func (r *InquiryRepository) Paginated(ctx context.Context, page, perPage int, status string) (PageResult[model.Inquiry], error) {
	filters := map[string]any{}
	if status != "" {
		filters["status"] = status
	}
	return r.GetPaginated(ctx, PageOptions{Page: page, PerPage: perPage, Filters: filters})
}

// SetStatus moves an inquiry through its triage workflow.
func (r *InquiryRepository) SetStatus(ctx context.Context, id int64, status string) (*model.Inquiry, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// NewInquiryReference generates a short human-readable reference code
// for a submission, e.g. "INQ-9F2C4A1B".
func NewInquiryReference() string {
	id := uuid.New()
	return "INQ-" + strings.ToUpper(id.String()[:8])
}
