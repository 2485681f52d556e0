/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/eval"
	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// removeConcurrency bounds the DeleteItem calls in flight for one RemoveRow.
const removeConcurrency = 8

// loadRows reads every data item of t, page by page.
func (s *Store) loadRows(ctx context.Context, op string, t *schema.Table) ([]storagemodels.Row, error) {
	if err := s.ready(ctx, op); err != nil {
		return nil, err
	}

	input := &sdk.QueryInput{
		TableName:                &s.tableName,
		KeyConditionExpression:   aws.String("#pk = :pk AND begins_with(#sk, :prefix)"),
		ExpressionAttributeNames: s.layout.keyNames(),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: partitionValue(t.Name)},
			":prefix": &types.AttributeValueMemberS{Value: sortKeyPrefix(t)},
		},
		ConsistentRead: aws.Bool(true),
		Limit:          aws.Int32(s.pageSize),
	}

	rows := make([]storagemodels.Row, 0)
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, mapError(op, err)
		}
		for _, item := range out.Items {
			row, err := decodeItem(t, item)
			if err != nil {
				return nil, rserrors.NewUnavailableError(backendName, op, err)
			}
			rows = append(rows, row)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return rows, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// RemoveRow deletes every row matching where. References are checked before
// anything is deleted; the deletes themselves are not atomic as a group.
func (s *Store) RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error {
	t, err := s.table(table, "")
	if err != nil {
		return err
	}
	where, err = t.PreparePredicate(where)
	if err != nil {
		return err
	}

	rows, err := s.loadRows(ctx, "RemoveRow", t)
	if err != nil {
		return err
	}
	doomed := eval.Filter(rows, where)
	if len(doomed) == 0 {
		return nil
	}
	if !t.IsRelation() {
		if err := s.checkReferencedBy(ctx, t, rows, doomed); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(removeConcurrency)
	for _, row := range doomed {
		key := s.layout.itemKey(t.Name, sortKey(t, row))
		g.Go(func() error {
			_, err := s.client.DeleteItem(gctx, &sdk.DeleteItemInput{
				TableName: &s.tableName,
				Key:       key,
			})
			return err
		})
	}
	return mapError("RemoveRow", g.Wait())
}

// checkReferencedBy rejects the removal of rows that a surviving row still references.
func (s *Store) checkReferencedBy(ctx context.Context, t *schema.Table, rows, doomed []storagemodels.Row) error {
	ids := make(map[int64]bool, len(doomed))
	for _, r := range doomed {
		ids[r[t.IdentityColumn].(int64)] = true
	}

	for _, ref := range s.catalog.ReferencedBy(t.Name) {
		refTable, err := s.catalog.Table(ref.Table)
		if err != nil {
			return err
		}
		refRows := rows
		if ref.Table != t.Name {
			if refRows, err = s.loadRows(ctx, "RemoveRow", refTable); err != nil {
				return err
			}
		}
		for _, r := range refRows {
			v, ok := r[ref.Column].(int64)
			if !ok || !ids[v] {
				continue
			}
			if ref.Table == t.Name && ids[r[t.IdentityColumn].(int64)] {
				continue
			}
			return rserrors.NewConstraintViolation(refTable.Name, ref.Column, rserrors.RuleForeignKey,
				fmt.Sprintf("%s %d is still referenced", t.Name, v))
		}
	}
	return nil
}

// GetMaxValueFromTable returns the largest non-null value of column among matching rows.
func (s *Store) GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error) {
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

	rows, err := s.loadRows(ctx, "GetMaxValueFromTable", t)
	if err != nil {
		return nil, false, err
	}
	v, ok := eval.Max(eval.Filter(rows, where), column)
	return v, ok, nil
}

// GetObjectCountByQuery counts the rows GetObjectDataByQuery would return.
func (s *Store) GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error) {
	rows, err := s.query(ctx, "GetObjectCountByQuery", q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetObjectDataByQuery returns the matching rows in query order.
func (s *Store) GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	return s.query(ctx, "GetObjectDataByQuery", q)
}

func (s *Store) query(ctx context.Context, op string, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	t, q, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.loadRows(ctx, op, t)
	if err != nil {
		return nil, err
	}
	return eval.Apply(t, rows, q), nil
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

// StreamObjectDataByQuery evaluates the query once and streams the result in pages.
func (s *Store) StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	all, err := s.query(ctx, "StreamObjectDataByQuery", q)
	if err != nil {
		return datastore.StreamError(err)
	}
	return datastore.StreamPages(ctx, q, func(_ context.Context, offset, limit int) ([]storagemodels.Row, error) {
		offset -= q.Offset
		if offset >= len(all) {
			return nil, nil
		}
		return all[offset:min(offset+limit, len(all))], nil
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

	rows, err := s.loadRows(ctx, "GetUIDOfAlreadyPersistedValueObject", t)
	if err != nil {
		return 0, false, err
	}
	row, ok := eval.First(t, rows, where)
	if !ok {
		return 0, false, nil
	}
	return row[t.IdentityColumn].(int64), true, nil
}
