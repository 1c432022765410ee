// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

// GeoIP resolves an IP address to a 2-letter country code using a
// MaxMind GeoLite2-Country database. A zero GeoIP is disabled and
// resolves everything to the empty string.
type GeoIP struct {
	mu sync.RWMutex
	db *maxminddb.Reader
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// OpenGeoIP opens a MaxMind database file. An empty path returns a
// disabled lookup rather than an error.
func OpenGeoIP(path string) (*GeoIP, error) {
	g := &GeoIP{}
	if path == "" {
		return g, nil
	}

	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	g.db = db
	return g, nil
}

// Country returns the ISO country code for ip, "LOCAL" for private and
// loopback addresses, or "" when the address is unknown or lookups are
// disabled.
func (g *GeoIP) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return "LOCAL"
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return ""
	}

	var rec geoRecord
	if err := g.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *GeoIP) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close releases the database.
func (g *GeoIP) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
