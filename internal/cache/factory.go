// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// FactoryOptions selects and configures a cache backend.
type FactoryOptions struct {
	// RedisURL selects the Redis backend when non-empty.
	RedisURL string
	// Prefix is the Redis key prefix.
	Prefix string
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// Logger receives a note about the chosen backend. Optional.
	Logger *slog.Logger
}

// New creates a cache backend from the options: Redis when configured,
// otherwise in-memory. A Redis connection failure falls back to the
// in-memory backend so a cache outage never blocks startup.
func New(opts FactoryOptions) Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = time.Hour
	}

	if opts.RedisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{
			URL:        opts.RedisURL,
			Prefix:     opts.Prefix,
			DefaultTTL: opts.DefaultTTL,
		})
		if err == nil {
			logger.Info("cache: using redis backend", "prefix", opts.Prefix)
			return c
		}
		logger.Warn("cache: redis unavailable, falling back to memory", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      opts.DefaultTTL,
		CleanupInterval: time.Minute,
	})
}
