// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package repo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/folio-labs/folio-go/internal/store"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Mapper describes how an entity type maps onto its table. Column names
// double as the allow-list for filters, ordering, and writes; anything
// not listed here never reaches the SQL text.
type Mapper[T any] struct {
	// Table is the table name.
	Table string
	// Columns is the select list, in the order Scan expects.
	Columns []string
	// Scan reads one row into an entity.
	Scan func(Scanner) (*T, error)
	// DefaultOrderBy is the column used when a query names no order.
	DefaultOrderBy string
	// DefaultAscending is the direction used with DefaultOrderBy.
	DefaultAscending bool
}

func (m Mapper[T]) hasColumn(name string) bool {
	for _, c := range m.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Repository provides generic CRUD and paginated queries over one table.
// Specialized repositories embed it and add their named shortcuts.
type Repository[T any] struct {
	db *sql.DB
	m  Mapper[T]
}

// NewRepository creates a repository for the given mapper.
func NewRepository[T any](db *sql.DB, m Mapper[T]) *Repository[T] {
	return &Repository[T]{db: db, m: m}
}

// selectList returns the comma-joined column list.
func (r *Repository[T]) selectList() string {
	return strings.Join(r.m.Columns, ", ")
}

// whereClause builds an equality WHERE clause from filters. Keys are
// processed in sorted order so the generated SQL is deterministic.
// Unknown columns are rejected rather than silently dropped.
func (r *Repository[T]) whereClause(filters map[string]any) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		if !r.m.hasColumn(k) {
			return "", nil, fmt.Errorf("unknown filter column %q", k)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(k)
		sb.WriteString(" = ?")
		args = append(args, filters[k])
	}
	return sb.String(), args, nil
}

// orderClause builds the ORDER BY clause. An order column outside the
// mapper's allow-list falls back to the default order.
func (r *Repository[T]) orderClause(orderBy string, ascending bool) string {
	col := orderBy
	if col == "" || !r.m.hasColumn(col) {
		col = r.m.DefaultOrderBy
		ascending = r.m.DefaultAscending
	}
	if col == "" {
		return ""
	}
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}

// GetAll returns entities matching the options' equality filters,
// ordered and windowed as requested.
func (r *Repository[T]) GetAll(ctx context.Context, opts QueryOptions) ([]T, error) {
	where, args, err := r.whereClause(opts.Filters)
	if err != nil {
		return nil, &QueryError{Table: r.m.Table, Op: "get_all", Err: err}
	}

	q := "SELECT " + r.selectList() + " FROM " + r.m.Table + where +
		r.orderClause(opts.OrderBy, opts.Ascending)
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
		q += " LIMIT -1"
	}
	if opts.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &QueryError{Table: r.m.Table, Op: "get_all", Err: store.Classify(err)}
	}
	defer rows.Close()

	out := make([]T, 0, 16)
	for rows.Next() {
		entity, err := r.m.Scan(rows)
		if err != nil {
			return nil, &QueryError{Table: r.m.Table, Op: "get_all", Err: err}
		}
		out = append(out, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: r.m.Table, Op: "get_all", Err: store.Classify(err)}
	}
	return out, nil
}

// GetByID returns the entity with the given id, or nil if no such row
// exists. Absence is a normal outcome, not an error.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	q := "SELECT " + r.selectList() + " FROM " + r.m.Table + " WHERE id = ?"

	entity, err := r.m.Scan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, &QueryError{Table: r.m.Table, Op: "get_by_id", Err: store.Classify(err)}
	}
	return entity, nil
}

// GetBy returns the single entity where column equals value, or nil if
// no such row exists. The column must be in the mapper's allow-list.
func (r *Repository[T]) GetBy(ctx context.Context, column string, value any) (*T, error) {
	if !r.m.hasColumn(column) {
		return nil, &QueryError{Table: r.m.Table, Op: "get_by",
			Err: fmt.Errorf("unknown column %q", column)}
	}

	q := "SELECT " + r.selectList() + " FROM " + r.m.Table + " WHERE " + column + " = ?"

	entity, err := r.m.Scan(r.db.QueryRowContext(ctx, q, value))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, &QueryError{Table: r.m.Table, Op: "get_by", Err: store.Classify(err)}
	}
	return entity, nil
}

// Create inserts a new row from the given fields and returns the stored
// entity. The id and timestamps are assigned by the database; passing
// them in fields is rejected.
func (r *Repository[T]) Create(ctx context.Context, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, &WriteError{Table: r.m.Table, Op: "create", Err: fmt.Errorf("no fields")}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if k == "id" || k == "created_at" || k == "updated_at" {
			return nil, &WriteError{Table: r.m.Table, Op: "create",
				Err: fmt.Errorf("column %q is assigned by the store", k)}
		}
		if !r.m.hasColumn(k) {
			return nil, &WriteError{Table: r.m.Table, Op: "create",
				Err: fmt.Errorf("unknown column %q", k)}
		}
		cols = append(cols, k)
		placeholders = append(placeholders, "?")
		args = append(args, fields[k])
	}

	q := "INSERT INTO " + r.m.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ")"

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "create", Err: store.Classify(err)}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "create", Err: err}
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "create", Err: err}
	}
	if created == nil {
		return nil, &WriteError{Table: r.m.Table, Op: "create",
			Err: fmt.Errorf("inserted row %d not found", id)}
	}
	return created, nil
}

// Update applies a partial update to the row with the given id and
// returns the updated entity. Updating a missing id is a WriteError.
func (r *Repository[T]) Update(ctx context.Context, id int64, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, &WriteError{Table: r.m.Table, Op: "update", Err: fmt.Errorf("no fields")}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		if k == "id" || k == "created_at" || k == "updated_at" {
			return nil, &WriteError{Table: r.m.Table, Op: "update",
				Err: fmt.Errorf("column %q is assigned by the store", k)}
		}
		if !r.m.hasColumn(k) {
			return nil, &WriteError{Table: r.m.Table, Op: "update",
				Err: fmt.Errorf("unknown column %q", k)}
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(" = ?")
		args = append(args, fields[k])
	}
	args = append(args, id)

	q := "UPDATE " + r.m.Table + " SET " + sb.String() +
		", updated_at = CURRENT_TIMESTAMP WHERE id = ?"

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "update", Err: store.Classify(err)}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "update", Err: err}
	}
	if affected == 0 {
		return nil, &WriteError{Table: r.m.Table, Op: "update", Err: store.ErrNotFound}
	}

	updated, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, &WriteError{Table: r.m.Table, Op: "update", Err: err}
	}
	return updated, nil
}

// Delete removes the row with the given id. Deleting an id that does
// not exist succeeds; delete is idempotent.
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+r.m.Table+" WHERE id = ?", id); err != nil {
		return &WriteError{Table: r.m.Table, Op: "delete", Err: store.Classify(err)}
	}
	return nil
}

// Count returns the number of rows matching the filters.
func (r *Repository[T]) Count(ctx context.Context, filters map[string]any) (int64, error) {
	where, args, err := r.whereClause(filters)
	if err != nil {
		return 0, &QueryError{Table: r.m.Table, Op: "count", Err: err}
	}

	var n int64
	q := "SELECT COUNT(*) FROM " + r.m.Table + where
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, &QueryError{Table: r.m.Table, Op: "count", Err: store.Classify(err)}
	}
	return n, nil
}

// GetPaginated runs a count query and a windowed data query over the
// same filter set. The count is awaited first; if it fails the data
// query is never issued. Page numbers start at 1.
func (r *Repository[T]) GetPaginated(ctx context.Context, opts PageOptions) (PageResult[T], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total, err := r.Count(ctx, opts.Filters)
	if err != nil {
		return PageResult[T]{}, err
	}

	data, err := r.GetAll(ctx, QueryOptions{
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
		OrderBy:   opts.OrderBy,
		Ascending: opts.Ascending,
		Filters:   opts.Filters,
	})
	if err != nil {
		return PageResult[T]{}, err
	}

	return NewPageResult(data, total, page, perPage), nil
}

// Increment atomically adds one to a counter column on the given row.
// The column must be in the mapper's allow-list.
func (r *Repository[T]) Increment(ctx context.Context, id int64, column string) error {
	if !r.m.hasColumn(column) {
		return &WriteError{Table: r.m.Table, Op: "increment",
			Err: fmt.Errorf("unknown column %q", column)}
	}

	q := "UPDATE " + r.m.Table + " SET " + column + " = " + column + " + 1 WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return &WriteError{Table: r.m.Table, Op: "increment", Err: store.Classify(err)}
	}
	return nil
}
