// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	sqlite "modernc.org/sqlite"
)

// SQLite primary result codes (modernc.org/sqlite reports extended codes;
// the primary code lives in the low byte).
const sqliteConstraint = 19

// MySQL server error numbers seen through the legacy-import path.
const (
	mysqlDupEntry         = 1062
	mysqlRecursiveTrigger = 1456
	mysqlSPRecursionLimit = 1424
)

// Classify maps a driver-level error onto the store's error taxonomy.
// It is the only place in the codebase that understands backend-specific
// error codes. Errors that match no known failure mode pass through
// unchanged so callers can still wrap and log them.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code()&0xff == sqliteConstraint {
			return ErrConstraint
		}
		// SQLite reports trigger/view recursion as a plain SQLITE_ERROR
		// with a distinctive message.
		if strings.Contains(se.Error(), "too many levels of trigger recursion") {
			return ErrPolicyRecursion
		}
		return err
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return ErrConstraint
		case mysqlRecursiveTrigger, mysqlSPRecursionLimit:
			return ErrPolicyRecursion
		}
		return err
	}

	// Some drivers wrap their errors beyond errors.As reach; fall back
	// to message matching.
	msg := err.Error()
	if strings.Contains(msg, "infinite recursion") || strings.Contains(msg, "recursion limit") {
		return ErrPolicyRecursion
	}

	return err
}

// IsNotFound reports whether err classifies as a missing row.
func IsNotFound(err error) bool {
	return errors.Is(Classify(err), ErrNotFound)
}

// IsPolicyRecursion reports whether err classifies as a policy recursion failure.
func IsPolicyRecursion(err error) bool {
	return errors.Is(Classify(err), ErrPolicyRecursion)
}

// IsConstraint reports whether err classifies as a constraint violation.
func IsConstraint(err error) bool {
	return errors.Is(Classify(err), ErrConstraint)
}
