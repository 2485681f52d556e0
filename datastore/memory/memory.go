/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process implementation of datastore.StoragePort.
// It is the reference behaviour other backends are tested against and a
// substitute for real backends in callers' tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/eval"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

const backendName = "memory"

func init() {
	registry.RegisterBackend(backendName, func(_ context.Context, _ config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		return New(catalog), nil
	})
}

type tableData struct {
	rows   map[string]storagemodels.Row
	nextID int64
}

// Store is an in-memory implementation of datastore.StoragePort
type Store struct {
	mu      sync.RWMutex
	catalog *schema.Catalog
	tables  map[string]*tableData
	closed  bool

	addError    error
	updateError error
	removeError error
	queryError  error
}

var _ datastore.StoragePort = (*Store)(nil)

// New creates an empty store for the tables of catalog
func New(catalog *schema.Catalog) *Store {
	s := &Store{
		catalog: catalog,
		tables:  make(map[string]*tableData),
	}
	for _, t := range catalog.Tables() {
		s.tables[t.Name] = &tableData{rows: make(map[string]storagemodels.Row)}
	}
	return s
}

// WithAddError makes AddRow and AddRelationRow operations return an error
func (s *Store) WithAddError(err error) *Store {
	s.addError = err
	return s
}

// WithUpdateError makes UpdateRow and UpdateRelationTableRow operations return an error
func (s *Store) WithUpdateError(err error) *Store {
	s.updateError = err
	return s
}

// WithRemoveError makes RemoveRow operations return an error
func (s *Store) WithRemoveError(err error) *Store {
	s.removeError = err
	return s
}

// WithQueryError makes every read operation return an error
func (s *Store) WithQueryError(err error) *Store {
	s.queryError = err
	return s
}

func (s *Store) table(name string, kind schema.TableKind) (*schema.Table, error) {
	return datastore.ResolveTable(s.catalog, name, kind)
}

// ready reports a closed store or an ended context as unavailable. Callers hold the lock.
func (s *Store) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewUnavailableError(backendName, op, err)
	}
	if s.closed {
		return errors.NewUnavailableError(backendName, op, fmt.Errorf("store is closed"))
	}
	return nil
}

// data returns the storage of table, creating it for tables added to the
// catalog after New. Callers hold the write lock.
func (s *Store) data(table string) *tableData {
	d, ok := s.tables[table]
	if !ok {
		d = &tableData{rows: make(map[string]storagemodels.Row)}
		s.tables[table] = d
	}
	return d
}

// rowsOf returns the rows of table, nil when nothing was stored yet. Callers hold a lock.
func (s *Store) rowsOf(table string) map[string]storagemodels.Row {
	if d, ok := s.tables[table]; ok {
		return d.rows
	}
	return nil
}

func rowKey(t *schema.Table, row storagemodels.Row) string {
	parts := make([]string, 0, len(t.RowKey()))
	for _, k := range t.RowKey() {
		parts = append(parts, schema.FormatValue(row[k]))
	}
	return strings.Join(parts, "|")
}

// checkReferences verifies that every non-null foreign key in row points at an existing row.
func (s *Store) checkReferences(t *schema.Table, row storagemodels.Row) error {
	for _, fk := range t.ForeignKeys() {
		v, ok := row[fk.Name]
		if !ok || v == nil {
			continue
		}
		target, err := s.catalog.Table(fk.References)
		if err != nil {
			return err
		}
		if _, exists := s.rowsOf(target.Name)[schema.FormatValue(v)]; !exists {
			return errors.NewConstraintViolation(t.Name, fk.Name, errors.RuleForeignKey,
				fmt.Sprintf("%s %v does not exist", target.Name, v))
		}
	}
	return nil
}

// AddRow inserts a row into a primary table
func (s *Store) AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error) {
	if s.addError != nil {
		return 0, s.addError
	}
	t, err := s.table(table, schema.KindPrimary)
	if err != nil {
		return 0, err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "AddRow"); err != nil {
		return 0, err
	}
	if err := s.checkReferences(t, row); err != nil {
		return 0, err
	}

	data := s.data(t.Name)
	data.nextID++
	row[t.IdentityColumn] = data.nextID
	data.rows[rowKey(t, row)] = row
	return data.nextID, nil
}

// AddRelationRow inserts a row into a relation table
func (s *Store) AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error {
	if s.addError != nil {
		return s.addError
	}
	t, err := s.table(table, schema.KindRelation)
	if err != nil {
		return err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "AddRelationRow"); err != nil {
		return err
	}
	if err := s.checkReferences(t, row); err != nil {
		return err
	}

	data := s.data(t.Name)
	key := rowKey(t, row)
	if _, exists := data.rows[key]; exists {
		return errors.NewConstraintViolation(t.Name, "", errors.RuleDuplicateKey, fmt.Sprintf("key (%s) already exists", key))
	}
	data.rows[key] = row
	return nil
}

// UpdateRow updates the primary-table row identified by its identity column
func (s *Store) UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error {
	return s.update(ctx, "UpdateRow", table, schema.KindPrimary, fields)
}

// UpdateRelationTableRow updates the relation row identified by its key columns
func (s *Store) UpdateRelationTableRow(ctx context.Context, table string, fields storagemodels.Row) error {
	return s.update(ctx, "UpdateRelationTableRow", table, schema.KindRelation, fields)
}

func (s *Store) update(ctx context.Context, op, table string, kind schema.TableKind, fields storagemodels.Row) error {
	if s.updateError != nil {
		return s.updateError
	}
	t, err := s.table(table, kind)
	if err != nil {
		return err
	}
	key, set, err := t.PrepareUpdate(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, op); err != nil {
		return err
	}
	data := s.data(t.Name)
	k := rowKey(t, storagemodels.Row(key))
	current, exists := data.rows[k]
	if !exists {
		return errors.NewNotFoundError(t.Name, key.String())
	}
	if err := s.checkReferences(t, set); err != nil {
		return err
	}

	updated := current.Clone()
	for col, v := range set {
		updated[col] = v
	}
	data.rows[k] = updated
	return nil
}

// RemoveRow deletes every row matching where
func (s *Store) RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error {
	if s.removeError != nil {
		return s.removeError
	}
	t, err := s.table(table, "")
	if err != nil {
		return err
	}
	where, err = t.PreparePredicate(where)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "RemoveRow"); err != nil {
		return err
	}

	data := s.data(t.Name)
	doomed := make(map[string]bool)
	for k, row := range data.rows {
		if eval.Match(row, where) {
			doomed[k] = true
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	if !t.IsRelation() {
		if err := s.checkReferencedBy(t, doomed); err != nil {
			return err
		}
	}
	for k := range doomed {
		delete(data.rows, k)
	}
	return nil
}

// checkReferencedBy rejects the removal of rows another surviving row still references.
func (s *Store) checkReferencedBy(t *schema.Table, doomed map[string]bool) error {
	for _, ref := range s.catalog.ReferencedBy(t.Name) {
		refTable, err := s.catalog.Table(ref.Table)
		if err != nil {
			return err
		}
		for k, row := range s.rowsOf(ref.Table) {
			v := row[ref.Column]
			if v == nil || !doomed[schema.FormatValue(v)] {
				continue
			}
			if ref.Table == t.Name && doomed[k] {
				continue
			}
			return errors.NewConstraintViolation(refTable.Name, ref.Column, errors.RuleForeignKey,
				fmt.Sprintf("%s %v is still referenced", t.Name, v))
		}
	}
	return nil
}

// GetMaxValueFromTable returns the largest non-null value of column among matching rows
func (s *Store) GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error) {
	if s.queryError != nil {
		return nil, false, s.queryError
	}
	t, err := s.table(table, "")
	if err != nil {
		return nil, false, err
	}
	if _, err := t.ResolveColumn(column); err != nil {
		return nil, false, err
	}
	where, err = t.PreparePredicate(where)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx, "GetMaxValueFromTable"); err != nil {
		return nil, false, err
	}
	v, ok := eval.Max(eval.Filter(s.snapshot(t), where), column)
	return v, ok, nil
}

// GetObjectCountByQuery counts the rows GetObjectDataByQuery would return
func (s *Store) GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error) {
	rows, err := s.query(ctx, "GetObjectCountByQuery", q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetObjectDataByQuery returns copies of the matching rows
func (s *Store) GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	rows, err := s.query(ctx, "GetObjectDataByQuery", q)
	if err != nil {
		return nil, err
	}
	out := make([]storagemodels.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// StreamObjectDataByQuery streams the matching rows of a single snapshot taken at call time
func (s *Store) StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	all, err := s.GetObjectDataByQuery(ctx, q)
	if err != nil {
		return datastore.StreamError(err)
	}
	return datastore.StreamPages(ctx, q, func(_ context.Context, offset, limit int) ([]storagemodels.Row, error) {
		offset -= q.Offset
		if offset >= len(all) {
			return nil, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}, opts...)
}

func (s *Store) query(ctx context.Context, op string, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	if s.queryError != nil {
		return nil, s.queryError
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	t, err := s.table(q.Table, "")
	if err != nil {
		return nil, err
	}
	q, err = t.PrepareQuery(q)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx, op); err != nil {
		return nil, err
	}
	return eval.Apply(t, s.snapshot(t), q), nil
}

// GetUIDOfAlreadyPersistedValueObject returns the lowest identity of a row equal to vo
func (s *Store) GetUIDOfAlreadyPersistedValueObject(ctx context.Context, vo storagemodels.ValueObject) (int64, bool, error) {
	if s.queryError != nil {
		return 0, false, s.queryError
	}
	t, err := s.table(vo.Table, "")
	if err != nil {
		return 0, false, err
	}
	where, err := t.PrepareValueObject(vo)
	if err != nil {
		return 0, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx, "GetUIDOfAlreadyPersistedValueObject"); err != nil {
		return 0, false, err
	}
	row, ok := eval.First(t, s.snapshot(t), where)
	if !ok {
		return 0, false, nil
	}
	return row[t.IdentityColumn].(int64), true, nil
}

// Close releases the store; later calls fail as unavailable
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// snapshot returns the table's rows without copying them. Callers hold the lock.
func (s *Store) snapshot(t *schema.Table) []storagemodels.Row {
	current := s.rowsOf(t.Name)
	rows := make([]storagemodels.Row, 0, len(current))
	for _, r := range current {
		rows = append(rows, r)
	}
	return rows
}

// Helper methods for testing

// Len returns the number of rows stored in table
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.tables[table]; ok {
		return len(data.rows)
	}
	return 0
}

// Clear removes all rows; identity counters keep their values so ids are never reused
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, data := range s.tables {
		data.rows = make(map[string]storagemodels.Row)
	}
}
