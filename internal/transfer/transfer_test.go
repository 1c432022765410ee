// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/store"
)

func newTestImporter(t *testing.T) *Importer {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "transfer_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	return NewImporter(db, nil)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Host: "db.legacy.test", Port: 3307,
		User: "reader", Password: "pw", Database: "oldsite",
	}
	assert.Equal(t, "reader:pw@tcp(db.legacy.test:3307)/oldsite?parseTime=true", cfg.DSN())

	cfg.Port = 0
	assert.Contains(t, cfg.DSN(), ":3306)/", "default MySQL port")
}

func TestConfigTablePrefix(t *testing.T) {
	cfg := Config{TablePrefix: "legacy_"}
	assert.Equal(t, "legacy_posts", cfg.table("posts"))

	bare := Config{}
	assert.Equal(t, "posts", bare.table("posts"))
}

func TestUniqueSlug(t *testing.T) {
	i := newTestImporter(t)
	ctx := context.Background()

	slug, fresh, err := i.uniqueSlug(ctx, "articles", "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug)
	assert.True(t, fresh)

	_, err = i.articles.Create(ctx, map[string]any{
		"title": "Hello World", "slug": "hello-world", "status": model.StatusDraft,
	})
	require.NoError(t, err)

	slug, fresh, err = i.uniqueSlug(ctx, "articles", "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug)
	assert.False(t, fresh, "existing slug marks the row as already imported")

	_, _, err = i.uniqueSlug(ctx, "inquiries", "x")
	assert.Error(t, err)
}

func TestUniqueSlugEmptyTitle(t *testing.T) {
	i := newTestImporter(t)

	slug, fresh, err := i.uniqueSlug(context.Background(), "projects", "!!!")
	require.NoError(t, err)
	assert.Equal(t, "untitled", slug)
	assert.True(t, fresh)
}
