// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/kv"
	"github.com/folio-labs/folio-go/internal/store"
)

func newTestScheduler(t *testing.T) (*Scheduler, *kv.Store) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "scheduler_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	kvStore := kv.New(db)
	return New(analytics.NewRecorder(db, nil, nil), kvStore, nil), kvStore
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}

func TestPurgeExpiredKVJob(t *testing.T) {
	s, kvStore := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, kvStore.Set(ctx, "stale", []byte("x"), -time.Hour))
	require.NoError(t, kvStore.Set(ctx, "fresh", []byte("y"), time.Hour))

	s.purgeExpiredKV()

	_, err := kvStore.Get(ctx, "stale")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = kvStore.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRollupJobTolerantOfEmptyDay(t *testing.T) {
	s, _ := newTestScheduler(t)

	// Nothing recorded yet; the job must not blow up.
	s.rollupYesterday()
	s.pruneRawViews()
}
