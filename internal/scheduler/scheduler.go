// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the recurring maintenance jobs: the nightly
// page-view rollup, pruning of old raw page views, and purging expired
// KV entries.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/kv"
)

// RawViewRetention is how long raw page views are kept before pruning.
// The daily rollup keeps the aggregate numbers beyond this window.
const RawViewRetention = 90 * 24 * time.Hour

// Scheduler owns the cron instance and the maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	recorder *analytics.Recorder
	kv       *kv.Store
	logger   *slog.Logger
}

// New creates a scheduler over the analytics recorder and the KV store.
func New(recorder *analytics.Recorder, kvStore *kv.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		recorder: recorder,
		kv:       kvStore,
		logger:   logger,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Roll up yesterday's page views shortly after midnight UTC.
	if _, err := s.cron.AddFunc("10 0 * * *", s.rollupYesterday); err != nil {
		return err
	}
	// Purge expired KV entries hourly.
	if _, err := s.cron.AddFunc("0 * * * *", s.purgeExpiredKV); err != nil {
		return err
	}
	// Prune raw page views weekly.
	if _, err := s.cron.AddFunc("30 0 * * 0", s.pruneRawViews); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) rollupYesterday() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	day := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if err := s.recorder.RollupDay(ctx, day); err != nil {
		s.logger.Error("page-view rollup failed", "day", day, "error", err)
		return
	}
	s.logger.Info("page-view rollup complete", "day", day)
}

func (s *Scheduler) purgeExpiredKV() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.kv.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("kv purge failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired kv entries", "count", n)
	}
}

func (s *Scheduler) pruneRawViews() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := s.recorder.PruneRaw(ctx, time.Now().Add(-RawViewRetention))
	if err != nil {
		s.logger.Error("page-view pruning failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned raw page views", "count", n)
	}
}
