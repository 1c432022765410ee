// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store owns the database connection and the boundary between
// backend-specific errors and the rest of the application. Nothing
// outside this package inspects driver error codes.
package store

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	// Not-found is an expected outcome, not a failure.
	ErrNotFound = errors.New("store: not found")

	// ErrPolicyRecursion indicates the backend rejected a query because a
	// row-level policy or trigger recursed. Security-relevant callers
	// treat this as a denial, never as an outage.
	ErrPolicyRecursion = errors.New("store: policy recursion")

	// ErrConstraint indicates a constraint violation on a write.
	ErrConstraint = errors.New("store: constraint violation")
)
