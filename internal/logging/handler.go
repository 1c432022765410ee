// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging configures the application logger and mirrors WARN+
// records into the events table for auditing.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
)

// Event levels stored in the events table.
const (
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Setup builds the application logger. Format is "text" or "json";
// level is one of debug/info/warn/error. When db is non-nil the handler
// is wrapped so WARN+ records are also written to the events table.
func Setup(format, level string, db *sql.DB) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var inner slog.Handler
	if strings.EqualFold(format, "json") {
		inner = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		inner = slog.NewTextHandler(os.Stdout, opts)
	}

	if db != nil {
		inner = NewEventLogHandler(inner, db)
	}
	return slog.New(inner)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EventLogHandler wraps another slog.Handler and additionally writes
// records at or above its threshold to the events table.
type EventLogHandler struct {
	inner slog.Handler
	db    *sql.DB
	level slog.Level
	attrs []slog.Attr
}

// NewEventLogHandler wraps inner so WARN+ records reach the events table.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{inner: inner, db: db, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), db: h.db, level: h.level, attrs: combined}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), db: h.db, level: h.level, attrs: h.attrs}
}

// writeEvent persists one record. The request context is deliberately
// not used: an audit row should land even when the request was
// cancelled. Failures are ignored; the event log must never take the
// application down with it.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	level := EventLevelWarning
	if r.Level >= slog.LevelError {
		level = EventLevelError
	}

	source := ""
	meta := make(map[string]string, r.NumAttrs()+len(h.attrs))
	collect := func(a slog.Attr) bool {
		if a.Key == "source" {
			source = a.Value.String()
			return true
		}
		meta[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	_, _ = h.db.Exec(
		"INSERT INTO events (level, message, source, meta) VALUES (?, ?, ?, ?)",
		level, r.Message, source, string(metaJSON))
}
