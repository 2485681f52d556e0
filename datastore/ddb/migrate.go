/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/rowstore/logging"
)

// tableActiveTimeout bounds the wait for a newly created table.
const tableActiveTimeout = 2 * time.Minute

// EnsureSchema creates the backing table with on-demand billing when it does
// not exist. Storage tables need no DDL of their own.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: &s.tableName})
	if err == nil {
		return nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return mapError("EnsureSchema", err)
	}

	_, err = s.client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: &s.tableName,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: &s.layout.PartitionKey, AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: &s.layout.SortKey, AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: &s.layout.PartitionKey, KeyType: types.KeyTypeHash},
			{AttributeName: &s.layout.SortKey, KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return mapError("EnsureSchema", err)
	}

	waiter := sdk.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: &s.tableName}, tableActiveTimeout); err != nil {
		return mapError("EnsureSchema", err)
	}
	logging.FromContext(ctx).Info().Str("table", s.tableName).Msg("created dynamodb table")
	return nil
}
