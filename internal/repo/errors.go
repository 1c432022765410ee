// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import "fmt"

// QueryError indicates a read failed for a reason other than the row
// being absent. It wraps the classified store error.
type QueryError struct {
	Table string
	Op    string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("repo: %s %s: %v", e.Table, e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// WriteError indicates a create, update, or delete was rejected.
type WriteError struct {
	Table string
	Op    string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("repo: %s %s: %v", e.Table, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
