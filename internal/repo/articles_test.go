// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/model"
)

func TestArticlesPublishedOrderedByPublishedAtDesc(t *testing.T) {
	r := NewArticleRepository(newTestDB(t), nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, slug := range []string{"first", "second", "third"} {
		_, err := r.Create(ctx, map[string]any{
			"title":        slug,
			"slug":         slug,
			"status":       model.StatusPublished,
			"published_at": base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	got, err := r.Published(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Slug)
	assert.Equal(t, "first", got[2].Slug)
}

func TestArticlesBySlugMissing(t *testing.T) {
	r := NewArticleRepository(newTestDB(t), nil)

	got, err := r.BySlug(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArticlesIncrementViews(t *testing.T) {
	r := NewArticleRepository(newTestDB(t), nil)
	ctx := context.Background()

	created, err := r.Create(ctx, map[string]any{
		"title": "read me", "slug": "read-me", "status": model.StatusPublished,
	})
	require.NoError(t, err)

	r.IncrementViews(ctx, created.ID)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ViewCount)
}

func TestArticlesPublishedPaginated(t *testing.T) {
	r := NewArticleRepository(newTestDB(t), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := r.Create(ctx, map[string]any{
			"title":    "a",
			"slug":     "a-" + string(rune('a'+i)),
			"category": "engineering",
			"status":   model.StatusPublished,
		})
		require.NoError(t, err)
	}

	page, err := r.PublishedPaginated(ctx, 2, 2, "engineering")
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.EqualValues(t, 5, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.True(t, page.HasPreviousPage)
}
