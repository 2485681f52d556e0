/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"

	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// StoragePort is the table-level persistence contract used by the object mapper.
type StoragePort interface {
	// AddRow inserts a row into a primary table and returns its new identity.
	AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error)

	// AddRelationRow inserts a row into a relation table.
	AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error

	// UpdateRow updates the primary-table row whose identity is carried in fields.
	UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error

	// UpdateRelationTableRow updates the relation row matching every key column in fields.
	UpdateRelationTableRow(ctx context.Context, table string, fields storagemodels.Row) error

	// RemoveRow deletes every row matching where. No match is not an error.
	RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error

	// GetMaxValueFromTable returns the maximum non-null value of column among matching rows.
	GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error)

	GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error)

	GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error)

	// StreamObjectDataByQuery delivers the rows of GetObjectDataByQuery over a channel.
	// The channel is closed after the last row, after an error result, or when ctx ends.
	StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult

	// GetUIDOfAlreadyPersistedValueObject returns the lowest identity of a row equal to vo.
	GetUIDOfAlreadyPersistedValueObject(ctx context.Context, vo storagemodels.ValueObject) (int64, bool, error)

	Close() error
}

// Migrator is implemented by ports that can create their tables from the catalog.
type Migrator interface {
	EnsureSchema(ctx context.Context) error
}

// ResolveTable looks up a table and checks its kind. An empty kind accepts both.
func ResolveTable(catalog *schema.Catalog, name string, kind schema.TableKind) (*schema.Table, error) {
	t, err := catalog.Table(name)
	if err != nil {
		return nil, err
	}
	if kind != "" && t.Kind != kind {
		return nil, errors.NewValidationError("table", fmt.Sprintf("%s is a %s table", name, t.Kind))
	}
	return t, nil
}
