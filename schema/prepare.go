/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"errors"
	"fmt"

	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/storagemodels"
)

func (t *Table) violation(column string, err error) error {
	var ve *ValueError
	if errors.As(err, &ve) {
		return rserrors.NewConstraintViolation(t.Name, column, ve.Rule, ve.Detail)
	}
	return rserrors.NewConstraintViolation(t.Name, column, rserrors.RuleType, err.Error())
}

// PrepareInsert validates fields for an insert and returns a row holding every
// data column, with defaults applied and values normalized.
func (t *Table) PrepareInsert(fields storagemodels.Row) (storagemodels.Row, error) {
	if id := t.Identity(); id != "" {
		if _, ok := fields[id]; ok {
			return nil, rserrors.NewValidationError(id, "identity column is assigned by the store")
		}
	}
	for _, name := range fields.Columns() {
		if _, ok := t.index[name]; !ok {
			return nil, rserrors.NewConstraintViolation(t.Name, name, rserrors.RuleUnknownColumn, "column is not declared")
		}
	}

	row := make(storagemodels.Row, len(t.Columns))
	for _, c := range t.Columns {
		raw, present := fields[c.Name]
		if !present {
			row[c.Name] = c.Default
			continue
		}
		v, err := c.Normalize(raw)
		if err != nil {
			return nil, t.violation(c.Name, err)
		}
		row[c.Name] = v
	}
	for _, c := range t.Columns {
		if c.NotNull && row[c.Name] == nil {
			return nil, rserrors.NewConstraintViolation(t.Name, c.Name, rserrors.RuleNotNull, "value is required")
		}
	}
	return row, nil
}

// PrepareUpdate splits fields into the key identifying the target row and the
// normalized columns to set.
func (t *Table) PrepareUpdate(fields storagemodels.Row) (storagemodels.Predicate, storagemodels.Row, error) {
	key := make(storagemodels.Predicate, len(t.RowKey()))
	for _, k := range t.RowKey() {
		raw, ok := fields[k]
		if !ok || raw == nil {
			return nil, nil, rserrors.NewValidationError(k, "key column is required to identify the row")
		}
		c, _ := t.Column(k)
		v, err := c.Normalize(raw)
		if err != nil {
			return nil, nil, rserrors.NewValidationError(k, err.Error())
		}
		key[k] = v
	}

	set := make(storagemodels.Row, len(fields))
	for _, name := range fields.Columns() {
		if t.IsKeyColumn(name) {
			continue
		}
		c, ok := t.Column(name)
		if !ok {
			return nil, nil, rserrors.NewConstraintViolation(t.Name, name, rserrors.RuleUnknownColumn, "column is not declared")
		}
		v, err := c.Normalize(fields[name])
		if err != nil {
			return nil, nil, t.violation(name, err)
		}
		if v == nil && c.NotNull {
			return nil, nil, rserrors.NewConstraintViolation(t.Name, name, rserrors.RuleNotNull, "value is required")
		}
		set[name] = v
	}
	return key, set, nil
}

// PreparePredicate validates and normalizes an equality filter.
func (t *Table) PreparePredicate(where storagemodels.Predicate) (storagemodels.Predicate, error) {
	out := make(storagemodels.Predicate, len(where))
	for _, name := range where.Columns() {
		c, ok := t.Column(name)
		if !ok {
			return nil, rserrors.NewValidationError(name, fmt.Sprintf("unknown column of table %s", t.Name))
		}
		v, err := c.Normalize(where[name])
		if err != nil {
			return nil, rserrors.NewValidationError(name, err.Error())
		}
		out[name] = v
	}
	return out, nil
}

// PrepareQuery validates a query against the table and returns a copy with a
// normalized filter.
func (t *Table) PrepareQuery(q *storagemodels.QuerySpec) (*storagemodels.QuerySpec, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter, err := t.PreparePredicate(q.Filter)
	if err != nil {
		return nil, err
	}
	for _, o := range q.Orderings {
		if _, ok := t.Column(o.Column); !ok {
			return nil, rserrors.NewValidationError(o.Column, fmt.Sprintf("cannot order by unknown column of table %s", t.Name))
		}
	}
	out := *q
	out.Filter = filter
	out.Orderings = append([]storagemodels.Ordering(nil), q.Orderings...)
	return &out, nil
}

// PrepareValueObject validates a value-object snapshot and returns the
// predicate that finds equal rows.
func (t *Table) PrepareValueObject(vo storagemodels.ValueObject) (storagemodels.Predicate, error) {
	if t.IsRelation() {
		return nil, rserrors.NewValidationError("table", fmt.Sprintf("%s is a relation table; value objects need an identity", t.Name))
	}
	if len(vo.Fields) == 0 {
		return nil, rserrors.NewValidationError("fields", "value object has no fields to compare")
	}
	if _, ok := vo.Fields[t.IdentityColumn]; ok {
		return nil, rserrors.NewValidationError(t.IdentityColumn, "value object snapshot must not carry an identity")
	}
	return t.PreparePredicate(storagemodels.Predicate(vo.Fields))
}

// ResolveColumn validates a column name used for aggregates.
func (t *Table) ResolveColumn(name string) (Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return Column{}, rserrors.NewValidationError(name, fmt.Sprintf("unknown column of table %s", t.Name))
	}
	return c, nil
}
