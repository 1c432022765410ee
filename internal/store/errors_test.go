// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyNoRows(t *testing.T) {
	assert.ErrorIs(t, Classify(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, Classify(fmt.Errorf("query: %w", sql.ErrNoRows)), ErrNotFound)
	assert.True(t, IsNotFound(sql.ErrNoRows))
}

func TestClassifyMySQLErrors(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.ErrorIs(t, Classify(dup), ErrConstraint)

	trigger := &mysql.MySQLError{Number: 1456, Message: "Recursive limit"}
	assert.ErrorIs(t, Classify(trigger), ErrPolicyRecursion)

	sp := &mysql.MySQLError{Number: 1424, Message: "Recursive stored functions"}
	assert.ErrorIs(t, Classify(sp), ErrPolicyRecursion)

	other := &mysql.MySQLError{Number: 1045, Message: "Access denied"}
	assert.Equal(t, error(other), Classify(other))
}

func TestClassifyRecursionMessages(t *testing.T) {
	assert.ErrorIs(t, Classify(errors.New("infinite recursion detected in policy")), ErrPolicyRecursion)
	assert.ErrorIs(t, Classify(errors.New("recursion limit exceeded")), ErrPolicyRecursion)
	assert.True(t, IsPolicyRecursion(errors.New("infinite recursion detected")))
}

func TestClassifyUnknownErrorPassesThrough(t *testing.T) {
	err := errors.New("disk is on fire")
	assert.Equal(t, err, Classify(err))
}

func TestClassifySQLiteConstraint(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "classify_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))

	_, err = db.Exec("INSERT INTO projects (title, slug) VALUES ('a', 'dup')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO projects (title, slug) VALUES ('b', 'dup')")
	require.Error(t, err)

	assert.ErrorIs(t, Classify(err), ErrConstraint)
	assert.True(t, IsConstraint(err))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "migrate_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}
