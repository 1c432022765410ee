// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/store"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "content_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	return NewService(db, analytics.NewRecorder(db, nil, nil), nil), db
}

func TestHealthCheckOK(t *testing.T) {
	s, _ := newTestService(t)

	h := s.HealthCheck(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.OK())
	assert.Empty(t, h.Message)
	assert.False(t, h.CheckedAt.IsZero())
}

func TestHealthCheckClosedDB(t *testing.T) {
	s, db := newTestService(t)
	require.NoError(t, db.Close())

	h := s.HealthCheck(context.Background())
	assert.Equal(t, "error", h.Status)
	assert.False(t, h.OK())
	assert.NotEmpty(t, h.Message)
}

func TestTrackPageViewSwallowsFailures(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	s.TrackPageView(ctx, analytics.Hit{Path: "/about", VisitorID: "v1"})

	var n int64
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM page_views").Scan(&n))
	assert.EqualValues(t, 1, n)

	// A dead database must not surface an error to the caller.
	require.NoError(t, db.Close())
	s.TrackPageView(ctx, analytics.Hit{Path: "/about"})
}

func TestArticleBySlugTracked(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Articles.Create(ctx, map[string]any{
		"title": "Post", "slug": "post", "status": model.StatusPublished,
	})
	require.NoError(t, err)

	got, err := s.ArticleBySlugTracked(ctx, "post")
	require.NoError(t, err)
	require.NotNil(t, got)

	reread, err := s.Articles.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reread.ViewCount)
}

func TestArticleBySlugTrackedHidesDrafts(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Articles.Create(ctx, map[string]any{
		"title": "Draft", "slug": "draft", "status": model.StatusDraft,
	})
	require.NoError(t, err)

	got, err := s.ArticleBySlugTracked(ctx, "draft")
	require.NoError(t, err)
	assert.Nil(t, got)

	missing, err := s.ArticleBySlugTracked(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
