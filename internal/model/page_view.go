// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// PageView represents one recorded page view. IP addresses are
// anonymized before the row is written.
type PageView struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	Referrer  string    `json:"referrer"`
	VisitorID string    `json:"visitor_id"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Country   string    `json:"country"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// PageViewDaily is one row of the daily rollup table.
type PageViewDaily struct {
	Day     string `json:"day"` // YYYY-MM-DD
	Path    string `json:"path"`
	Views   int64  `json:"views"`
	Uniques int64  `json:"uniques"`
}
