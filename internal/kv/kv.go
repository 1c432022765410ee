// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package kv provides a small persistent key/value store backed by the
// application database. It holds the handful of durable records that do
// not deserve their own table, such as the extended-session override and
// in-flight OAuth state.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/folio-labs/folio-go/internal/store"
)

// ErrNotFound indicates the key does not exist or has expired.
var ErrNotFound = errors.New("kv: not found")

// Store is a persistent key/value store over the kv table.
type Store struct {
	db *sql.DB
}

// New creates a Store using the given database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key. Expired entries are treated as absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value, expires_at FROM kv WHERE key = ?`

	var value []byte
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value, &expiresAt)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %q: %w", key, store.Classify(err))
	}

	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		return nil, ErrNotFound
	}
	return value, nil
}

// Set stores value under key. A zero ttl stores the value without
// expiry. The expiry is written as a UTC string in the same format
// CURRENT_TIMESTAMP uses, so SQL-side comparisons are well defined.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const q = `
INSERT INTO kv (key, value, expires_at, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = CURRENT_TIMESTAMP`

	var expiresAt any
	if ttl != 0 {
		expiresAt = time.Now().UTC().Add(ttl).Format("2006-01-02 15:04:05")
	}

	if _, err := s.db.ExecContext(ctx, q, key, value, expiresAt); err != nil {
		return fmt.Errorf("kv set %q: %w", key, store.Classify(err))
	}
	return nil
}

// Delete removes key. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, store.Classify(err))
	}
	return nil
}

// PurgeExpired removes all entries whose expiry has passed and returns
// how many rows were deleted. The scheduler calls this periodically.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("kv purge: %w", store.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
