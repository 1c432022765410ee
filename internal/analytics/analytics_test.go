// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/store"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "analytics_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(db))
	return db
}

func TestRecordAnonymizesAndEnriches(t *testing.T) {
	db := newTestDB(t)
	r := NewRecorder(db, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, Hit{
		Path:      "/projects/harbor",
		Title:     "Harbor",
		UserAgent: chromeUA,
		IP:        "203.0.113.77",
	}))

	var ip, browser, os, device, visitorID string
	err := db.QueryRow(
		"SELECT ip, browser, os, device, visitor_id FROM page_views").
		Scan(&ip, &browser, &os, &device, &visitorID)
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.0", ip, "last octet must be zeroed")
	assert.Equal(t, "Chrome", browser)
	assert.Equal(t, "Windows", os)
	assert.Equal(t, "desktop", device)
	assert.NotEmpty(t, visitorID, "a visitor id is generated when absent")
}

func TestRecordKeepsProvidedVisitorID(t *testing.T) {
	db := newTestDB(t)
	r := NewRecorder(db, nil, nil)

	require.NoError(t, r.Record(context.Background(), Hit{
		Path:      "/",
		VisitorID: "visitor-1",
	}))

	var visitorID string
	require.NoError(t, db.QueryRow("SELECT visitor_id FROM page_views").Scan(&visitorID))
	assert.Equal(t, "visitor-1", visitorID)
}

func TestRollupDayAggregates(t *testing.T) {
	db := newTestDB(t)
	r := NewRecorder(db, nil, nil)
	ctx := context.Background()

	for _, h := range []Hit{
		{Path: "/a", VisitorID: "v1"},
		{Path: "/a", VisitorID: "v1"},
		{Path: "/a", VisitorID: "v2"},
		{Path: "/b", VisitorID: "v1"},
	} {
		require.NoError(t, r.Record(ctx, h))
	}

	day := time.Now().UTC().Format("2006-01-02")
	require.NoError(t, r.RollupDay(ctx, day))

	stats, err := r.DailyStats(ctx, day)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "/a", stats[0].Path)
	assert.EqualValues(t, 3, stats[0].Views)
	assert.EqualValues(t, 2, stats[0].Uniques)
	assert.Equal(t, "/b", stats[1].Path)
	assert.EqualValues(t, 1, stats[1].Views)

	// Re-running the rollup must replace, not double.
	require.NoError(t, r.RollupDay(ctx, day))
	stats, err = r.DailyStats(ctx, day)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats[0].Views)
}

func TestPruneRawKeepsRollup(t *testing.T) {
	db := newTestDB(t)
	r := NewRecorder(db, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, Hit{Path: "/a", VisitorID: "v1"}))
	day := time.Now().UTC().Format("2006-01-02")
	require.NoError(t, r.RollupDay(ctx, day))

	deleted, err := r.PruneRaw(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	n, err := r.CountSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := r.DailyStats(ctx, day)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}

func TestGeoIPDisabled(t *testing.T) {
	g, err := OpenGeoIP("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	assert.False(t, g.Enabled())
	assert.Equal(t, "", g.Country("8.8.8.8"))
	assert.Equal(t, "LOCAL", g.Country("127.0.0.1"))
	assert.Equal(t, "LOCAL", g.Country("192.168.1.10"))
	assert.Equal(t, "", g.Country("not-an-ip"))
}
