// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records privacy-conscious page views and maintains
// the daily rollup used by the stats endpoints.
package analytics

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/store"
	"github.com/folio-labs/folio-go/internal/util"
)

// Hit is the raw material for one page view, as captured at the HTTP
// boundary. IP and UserAgent are processed before anything is stored:
// the IP is anonymized and the user agent reduced to browser/OS/device.
type Hit struct {
	Path      string
	Title     string
	UserID    string
	Referrer  string
	VisitorID string
	UserAgent string
	IP        string
}

// Recorder enriches and persists page views.
type Recorder struct {
	db     *sql.DB
	geo    *GeoIP
	logger *slog.Logger
}

// NewRecorder creates a Recorder. geo may be a disabled lookup.
func NewRecorder(db *sql.DB, geo *GeoIP, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if geo == nil {
		geo = &GeoIP{}
	}
	return &Recorder{db: db, geo: geo, logger: logger}
}

// Record enriches a hit and writes it to the page_views table. The raw
// IP never reaches the database.
func (r *Recorder) Record(ctx context.Context, hit Hit) error {
	ua := useragent.Parse(hit.UserAgent)
	browser := ua.Name
	if browser == "" {
		browser = "Unknown"
	}
	os := ua.OS
	if os == "" {
		os = "Unknown"
	}
	device := "desktop"
	switch {
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Bot:
		device = "bot"
	}

	visitorID := hit.VisitorID
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	country := r.geo.Country(hit.IP)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO page_views (path, title, user_id, referrer, visitor_id, browser, os, device, country, ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hit.Path, hit.Title, hit.UserID, hit.Referrer, visitorID,
		browser, os, device, country, util.AnonymizeIP(hit.IP))
	if err != nil {
		return store.Classify(err)
	}
	return nil
}

// RollupDay aggregates the raw page views of one day (YYYY-MM-DD) into
// the page_view_daily table. Re-running for the same day replaces the
// previous rollup.
func (r *Recorder) RollupDay(ctx context.Context, day string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO page_view_daily (day, path, views, uniques)
		SELECT date(created_at), path, COUNT(*), COUNT(DISTINCT visitor_id)
		FROM page_views
		WHERE date(created_at) = ?
		GROUP BY path
		ON CONFLICT (day, path) DO UPDATE SET
			views = excluded.views,
			uniques = excluded.uniques`,
		day)
	if err != nil {
		return store.Classify(err)
	}
	return nil
}

// sqliteTime formats a timestamp the way CURRENT_TIMESTAMP stores it,
// so text comparison against the created_at column is well defined.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// PruneRaw deletes raw page views older than the retention window.
// Rolled-up daily counts survive pruning.
func (r *Recorder) PruneRaw(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM page_views WHERE created_at < ?", sqliteTime(olderThan))
	if err != nil {
		return 0, store.Classify(err)
	}
	return res.RowsAffected()
}

// DailyStats returns the rollup rows for a day, most viewed first.
func (r *Recorder) DailyStats(ctx context.Context, day string) ([]model.PageViewDaily, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, path, views, uniques FROM page_view_daily
		WHERE day = ? ORDER BY views DESC, path ASC`, day)
	if err != nil {
		return nil, store.Classify(err)
	}
	defer rows.Close()

	var out []model.PageViewDaily
	for rows.Next() {
		var d model.PageViewDaily
		if err := rows.Scan(&d.Day, &d.Path, &d.Views, &d.Uniques); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountSince returns the number of raw page views recorded at or after t.
func (r *Recorder) CountSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM page_views WHERE created_at >= ?", sqliteTime(t)).Scan(&n)
	if err != nil {
		return 0, store.Classify(err)
	}
	return n, nil
}
