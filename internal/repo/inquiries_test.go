// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/model"
)

func TestInquirySubmit(t *testing.T) {
	r := NewInquiryRepository(newTestDB(t))
	ctx := context.Background()

	got, err := r.Submit(ctx, "Ada", "ada@example.com", "Project quote", "Hello there.")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, strings.HasPrefix(got.Reference, "INQ-"), "reference %q", got.Reference)
	assert.Len(t, got.Reference, len("INQ-")+8)
	assert.Equal(t, model.InquiryStatusNew, got.Status)
	assert.Equal(t, "ada@example.com", got.Email)

	found, err := r.ByReference(ctx, got.Reference)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, got.ID, found.ID)
}

func TestInquiryReferencesAreUnique(t *testing.T) {
	r := NewInquiryRepository(newTestDB(t))
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		got, err := r.Submit(ctx, "n", "n@example.com", "s", "m")
		require.NoError(t, err)
		assert.False(t, seen[got.Reference], "duplicate reference %q", got.Reference)
		seen[got.Reference] = true
	}
}

func TestInquiryStatusWorkflow(t *testing.T) {
	r := NewInquiryRepository(newTestDB(t))
	ctx := context.Background()

	got, err := r.Submit(ctx, "Bob", "bob@example.com", "", "Ping")
	require.NoError(t, err)

	updated, err := r.SetStatus(ctx, got.ID, model.InquiryStatusRead)
	require.NoError(t, err)
	assert.Equal(t, model.InquiryStatusRead, updated.Status)

	fresh, err := r.ByStatus(ctx, model.InquiryStatusNew)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	read, err := r.ByStatus(ctx, model.InquiryStatusRead)
	require.NoError(t, err)
	assert.Len(t, read, 1)
}

func TestInquiryPaginatedFilter(t *testing.T) {
	r := NewInquiryRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.Submit(ctx, "n", "n@example.com", "s", "m")
		require.NoError(t, err)
	}

	page, err := r.Paginated(ctx, 1, 10, model.InquiryStatusNew)
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)

	page, err = r.Paginated(ctx, 1, 10, model.InquiryStatusArchived)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}
