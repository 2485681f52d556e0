/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package pg provides a PostgreSQL implementation of datastore.StoragePort.
// It uses pgx/v5 for connection pooling and renders statements with the
// sqlbuild Postgres dialect.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/sqlbuild"
	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

const backendName = "postgres"

func init() {
	registry.RegisterBackend(backendName, func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		return New(ctx, cfg.Postgres, catalog)
	})
}

// Store is a PostgreSQL-backed StoragePort.
type Store struct {
	pool    *pgxpool.Pool
	dialect sqlbuild.Postgres
	catalog *schema.Catalog
}

// Ensure Store implements datastore.StoragePort at compile time.
var (
	_ datastore.StoragePort = (*Store)(nil)
	_ datastore.Migrator    = (*Store)(nil)
)

// applyDefaults fills unset pool settings.
func applyDefaults(cfg *config.PostgresConfig) {
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 25
	}
	if cfg.MinConns == 0 {
		cfg.MinConns = 5
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = 5 * time.Minute
	}
}

// New creates a pooled store and verifies connectivity.
func New(ctx context.Context, cfg config.PostgresConfig, catalog *schema.Catalog) (*Store, error) {
	applyDefaults(&cfg)

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	logging.FromContext(ctx).Debug().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("opened postgres store")
	return &Store{pool: pool, catalog: catalog}, nil
}

func (s *Store) table(name string, kind schema.TableKind) (*schema.Table, error) {
	return datastore.ResolveTable(s.catalog, name, kind)
}

// EnsureSchema creates missing tables, referenced tables first.
func (s *Store) EnsureSchema(ctx context.Context) error {
	log := logging.FromContext(ctx)
	for _, t := range s.catalog.Tables() {
		ddl, err := sqlbuild.CreateTable(s.dialect, t, s.catalog)
		if err != nil {
			return fmt.Errorf("render table %s: %w", t.Name, err)
		}
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return mapError("EnsureSchema", t.Name, err)
		}
		log.Debug().Str("table", t.Name).Msg("ensured table")
	}
	return nil
}

// AddRow inserts into a primary table and returns the generated identity.
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
	var id int64
	if err := s.pool.QueryRow(ctx, stmt.SQL, stmt.Params...).Scan(&id); err != nil {
		return 0, mapError("AddRow", t.Name, err)
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
	if _, err := s.pool.Exec(ctx, stmt.SQL, stmt.Params...); err != nil {
		return mapError("AddRelationRow", t.Name, err)
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
		err := s.pool.QueryRow(ctx, stmt.SQL, stmt.Params...).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return rserrors.NewNotFoundError(t.Name, key.String())
		}
		return mapError(op, t.Name, err)
	}

	tag, err := s.pool.Exec(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return mapError(op, t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return rserrors.NewNotFoundError(t.Name, key.String())
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

	stmt := sqlbuild.For(s.dialect, t).Delete(where)
	if _, err := s.pool.Exec(ctx, stmt.SQL, stmt.Params...); err != nil {
		return mapError("RemoveRow", t.Name, err)
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
	if err := s.pool.QueryRow(ctx, stmt.SQL, stmt.Params...).Scan(&raw); err != nil {
		return nil, false, mapError("GetMaxValueFromTable", t.Name, err)
	}
	v, err := sqlbuild.Decode(c, raw)
	if err != nil {
		return nil, false, mapError("GetMaxValueFromTable", t.Name, err)
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
	var n int64
	if err := s.pool.QueryRow(ctx, stmt.SQL, stmt.Params...).Scan(&n); err != nil {
		return 0, mapError("GetObjectCountByQuery", t.Name, err)
	}
	return int(n), nil
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
	err = s.pool.QueryRow(ctx, stmt.SQL, stmt.Params...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapError("GetUIDOfAlreadyPersistedValueObject", t.Name, err)
	}
	return id, true, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
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
	rows, err := s.pool.Query(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, mapError(op, t.Name, err)
	}
	defer rows.Close()

	out := make([]storagemodels.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, mapError(op, t.Name, err)
		}
		row, err := sqlbuild.DecodeRow(t, values)
		if err != nil {
			return nil, mapError(op, t.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, t.Name, err)
	}
	return out, nil
}
