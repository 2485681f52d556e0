/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/sqlbuild"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// Store implements datastore.StoragePort over a database/sql handle.
type Store struct {
	db      *sql.DB
	dialect sqlbuild.Dialect
	catalog *schema.Catalog
}

var (
	_ datastore.StoragePort = (*Store)(nil)
	_ datastore.Migrator    = (*Store)(nil)
)

// New wraps an open handle. The handle is owned by the store and closed by Close.
func New(db *sql.DB, dialect sqlbuild.Dialect, catalog *schema.Catalog) *Store {
	return &Store{db: db, dialect: dialect, catalog: catalog}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) table(name string, kind schema.TableKind) (*schema.Table, error) {
	return datastore.ResolveTable(s.catalog, name, kind)
}

// AddRow inserts into a primary table and returns the identity assigned by the engine.
func (s *Store) AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error) {
	t, err := s.table(table, schema.KindPrimary)
	if err != nil {
		return 0, err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return 0, err
	}

	stmt := sqlbuild.For(s.dialect, t).Insert(row)
	if s.dialect.Returning() {
		var id int64
		if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Params...).Scan(&id); err != nil {
			return 0, s.mapError("AddRow", t.Name, err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return 0, s.mapError("AddRow", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.mapError("AddRow", t.Name, err)
	}
	return id, nil
}

// AddRelationRow inserts into a relation table.
func (s *Store) AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error {
	t, err := s.table(table, schema.KindRelation)
	if err != nil {
		return err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return err
	}
	stmt := sqlbuild.For(s.dialect, t).Insert(row)
	if _, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Params...); err != nil {
		return s.mapError("AddRelationRow", t.Name, err)
	}
	return nil
}

// UpdateRow updates the row identified by the identity column in fields.
func (s *Store) UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error {
	return s.update(ctx, "UpdateRow", table, schema.KindPrimary, fields)
}

// UpdateRelationTableRow updates the row identified by the key columns in fields.
func (s *Store) UpdateRelationTableRow(ctx context.Context, table string, fields storagemodels.Row) error {
	return s.update(ctx, "UpdateRelationTableRow", table, schema.KindRelation, fields)
}

func (s *Store) update(ctx context.Context, op, table string, kind schema.TableKind, fields storagemodels.Row) error {
	t, err := s.table(table, kind)
	if err != nil {
		return err
	}
	key, set, err := t.PrepareUpdate(fields)
	if err != nil {
		return err
	}

	stmt := sqlbuild.For(s.dialect, t).Update(key, set)
	if len(set) == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Params...).Scan(&one)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError(t.Name, key.String())
		}
		return s.mapError(op, t.Name, err)
	}

	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return s.mapError(op, t.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.mapError(op, t.Name, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(t.Name, key.String())
	}
	return nil
}

// RemoveRow deletes every row matching where in one transaction.
func (s *Store) RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error {
	t, err := s.table(table, "")
	if err != nil {
		return err
	}
	where, err = t.PreparePredicate(where)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.mapError("RemoveRow", t.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	b := sqlbuild.For(s.dialect, t)
	// Engines that check foreign keys row by row would reject a row whose
	// parent goes away in the same statement.
	for _, fk := range t.ForeignKeys() {
		if fk.References != t.Name || fk.NotNull {
			continue
		}
		stmt := b.Update(where, storagemodels.Row{fk.Name: nil})
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Params...); err != nil {
			return s.mapError("RemoveRow", t.Name, err)
		}
	}

	stmt := b.Delete(where)
	if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Params...); err != nil {
		return s.mapError("RemoveRow", t.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return s.mapError("RemoveRow", t.Name, err)
	}
	return nil
}

// GetMaxValueFromTable returns the largest non-null value of column among matching rows.
func (s *Store) GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error) {
	t, err := s.table(table, "")
	if err != nil {
		return nil, false, err
	}
	c, err := t.ResolveColumn(column)
	if err != nil {
		return nil, false, err
	}
	where, err = t.PreparePredicate(where)
	if err != nil {
		return nil, false, err
	}

	stmt := sqlbuild.For(s.dialect, t).Max(where, c)
	var raw any
	if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Params...).Scan(&raw); err != nil {
		return nil, false, s.mapError("GetMaxValueFromTable", t.Name, err)
	}
	v, err := sqlbuild.Decode(c, raw)
	if err != nil {
		return nil, false, s.mapError("GetMaxValueFromTable", t.Name, err)
	}
	return v, v != nil, nil
}

// GetObjectCountByQuery counts the rows GetObjectDataByQuery would return.
func (s *Store) GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error) {
	t, q, err := s.prepare(q)
	if err != nil {
		return 0, err
	}
	stmt := sqlbuild.For(s.dialect, t).Count(q)
	var n int
	if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Params...).Scan(&n); err != nil {
		return 0, s.mapError("GetObjectCountByQuery", t.Name, err)
	}
	return n, nil
}

// GetObjectDataByQuery returns the matching rows in query order.
func (s *Store) GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	t, q, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	return s.selectRows(ctx, "GetObjectDataByQuery", t, sqlbuild.For(s.dialect, t).Select(q))
}

// StreamObjectDataByQuery pages through the query with LIMIT and OFFSET.
// Writes committed between pages can shift rows across page boundaries.
func (s *Store) StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	t, q, err := s.prepare(q)
	if err != nil {
		return datastore.StreamError(err)
	}
	return datastore.StreamPages(ctx, q, func(ctx context.Context, offset, limit int) ([]storagemodels.Row, error) {
		return s.selectRows(ctx, "StreamObjectDataByQuery", t, sqlbuild.For(s.dialect, t).SelectPage(q, offset, limit))
	}, opts...)
}

// GetUIDOfAlreadyPersistedValueObject returns the lowest identity of a row equal to vo.
func (s *Store) GetUIDOfAlreadyPersistedValueObject(ctx context.Context, vo storagemodels.ValueObject) (int64, bool, error) {
	t, err := s.table(vo.Table, "")
	if err != nil {
		return 0, false, err
	}
	where, err := t.PrepareValueObject(vo)
	if err != nil {
		return 0, false, err
	}

	stmt := sqlbuild.For(s.dialect, t).FirstIdentity(where)
	var id int64
	err = s.db.QueryRowContext(ctx, stmt.SQL, stmt.Params...).Scan(&id)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, s.mapError("GetUIDOfAlreadyPersistedValueObject", t.Name, err)
	}
	return id, true, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) prepare(q *storagemodels.QuerySpec) (*schema.Table, *storagemodels.QuerySpec, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}
	t, err := s.table(q.Table, "")
	if err != nil {
		return nil, nil, err
	}
	q, err = t.PrepareQuery(q)
	if err != nil {
		return nil, nil, err
	}
	return t, q, nil
}

func (s *Store) selectRows(ctx context.Context, op string, t *schema.Table, stmt sqlbuild.QueryResult) ([]storagemodels.Row, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, s.mapError(op, t.Name, err)
	}
	defer rows.Close()

	width := len(t.ColumnNames())
	out := make([]storagemodels.Row, 0)
	for rows.Next() {
		values := make([]any, width)
		ptrs := make([]any, width)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.mapError(op, t.Name, err)
		}
		row, err := sqlbuild.DecodeRow(t, values)
		if err != nil {
			return nil, s.mapError(op, t.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(op, t.Name, err)
	}
	return out, nil
}
