/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

const backendName = "dynamodb"

func init() {
	registry.RegisterBackend(backendName, func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		return Open(ctx, cfg.DynamoDB, catalog)
	})
}

// API is the subset of the DynamoDB client used by the store.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
}

// Store implements datastore.StoragePort on a single DynamoDB table. Every
// storage table lives in its own partition; filtering and ordering are
// evaluated client side.
type Store struct {
	client    API
	tableName string
	layout    Layout
	catalog   *schema.Catalog
	pageSize  int32
	closed    atomic.Bool
}

var (
	_ datastore.StoragePort = (*Store)(nil)
	_ datastore.Migrator    = (*Store)(nil)
)

// NewClient initializes a DynamoDB client. Static credentials are used when
// an access key is configured, the default chain otherwise.
func NewClient(ctx context.Context, cfg config.DynamoDBConfig) (*sdk.Client, error) {
	// Callers own retry policy; the SDK makes a single attempt.
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Open creates a client from cfg and returns a store over cfg.Table.
func Open(ctx context.Context, cfg config.DynamoDBConfig, catalog *schema.Catalog) (*Store, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	layout := DefaultLayout
	if cfg.PartitionKey != "" {
		layout.PartitionKey = cfg.PartitionKey
	}
	if cfg.SortKey != "" {
		layout.SortKey = cfg.SortKey
	}

	logging.FromContext(ctx).Debug().
		Str("table", cfg.Table).
		Str("region", cfg.Region).
		Msg("dynamodb client initialized")
	return New(client, cfg.Table, layout, catalog)
}

// New returns a store using client.
func New(client API, tableName string, layout Layout, catalog *schema.Catalog) (*Store, error) {
	if err := layout.validate(catalog); err != nil {
		return nil, err
	}
	return &Store{
		client:    client,
		tableName: tableName,
		layout:    layout,
		catalog:   catalog,
		pageSize:  100,
	}, nil
}

func (s *Store) table(name string, kind schema.TableKind) (*schema.Table, error) {
	return datastore.ResolveTable(s.catalog, name, kind)
}

// ready reports a closed store or an ended context as unavailable.
func (s *Store) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return rserrors.NewUnavailableError(backendName, op, err)
	}
	if s.closed.Load() {
		return rserrors.NewUnavailableError(backendName, op, errors.New("store is closed"))
	}
	return nil
}

// nextIdentity atomically increments the identity counter of table.
func (s *Store) nextIdentity(ctx context.Context, table string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.layout.itemKey(table, sequenceKey),
		UpdateExpression:          aws.String("ADD #seq :one"),
		ExpressionAttributeNames:  map[string]string{"#seq": sequenceAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	var id int64
	if err := attributevalue.Unmarshal(out.Attributes[sequenceAttr], &id); err != nil {
		return 0, fmt.Errorf("failed to unmarshal identity counter: %w", err)
	}
	return id, nil
}

// referenceChecks returns one condition check per non-null foreign key of
// row, skipping references to the item identified by self.
func (s *Store) referenceChecks(t *schema.Table, row storagemodels.Row, self string) ([]types.TransactWriteItem, []schema.Column) {
	var checks []types.TransactWriteItem
	var cols []schema.Column
	for _, fk := range t.ForeignKeys() {
		v, ok := row[fk.Name].(int64)
		if !ok {
			continue
		}
		sk := rowSortKey(v)
		if fk.References == t.Name && sk == self {
			continue
		}
		checks = append(checks, types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName:                &s.tableName,
				Key:                      s.layout.itemKey(fk.References, sk),
				ConditionExpression:      aws.String("attribute_exists(#pk)"),
				ExpressionAttributeNames: s.layout.pkNames(),
			},
		})
		cols = append(cols, fk)
	}
	return checks, cols
}

// put writes a new item, failing on an existing key or a dangling reference.
func (s *Store) put(ctx context.Context, op string, t *schema.Table, sk string, row storagemodels.Row) error {
	item, err := s.layout.encodeItem(t, sk, row)
	if err != nil {
		return rserrors.NewConstraintViolation(t.Name, "", rserrors.RuleType, err.Error())
	}
	checks, cols := s.referenceChecks(t, row, sk)

	if len(checks) == 0 {
		_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:                &s.tableName,
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: s.layout.pkNames(),
		})
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return rserrors.NewConstraintViolation(t.Name, "", rserrors.RuleDuplicateKey, fmt.Sprintf("key %s already exists", sk))
		}
		return mapError(op, err)
	}

	items := append([]types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                &s.tableName,
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: s.layout.pkNames(),
		},
	}}, checks...)
	_, err = s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	if failed, ok := cancelledAt(err); ok {
		if failed == 0 {
			return rserrors.NewConstraintViolation(t.Name, "", rserrors.RuleDuplicateKey, fmt.Sprintf("key %s already exists", sk))
		}
		return danglingReference(t, cols[failed-1], row)
	}
	return mapError(op, err)
}

func danglingReference(t *schema.Table, fk schema.Column, row storagemodels.Row) error {
	return rserrors.NewConstraintViolation(t.Name, fk.Name, rserrors.RuleForeignKey,
		fmt.Sprintf("%s %v does not exist", fk.References, row[fk.Name]))
}

// AddRow inserts a row into a primary table under a freshly allocated identity.
func (s *Store) AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error) {
	t, err := s.table(table, schema.KindPrimary)
	if err != nil {
		return 0, err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return 0, err
	}
	if err := s.ready(ctx, "AddRow"); err != nil {
		return 0, err
	}

	id, err := s.nextIdentity(ctx, t.Name)
	if err != nil {
		return 0, mapError("AddRow", err)
	}
	row[t.IdentityColumn] = id
	if err := s.put(ctx, "AddRow", t, rowSortKey(id), row); err != nil {
		return 0, err
	}
	return id, nil
}

// AddRelationRow inserts a row into a relation table.
func (s *Store) AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error {
	t, err := s.table(table, schema.KindRelation)
	if err != nil {
		return err
	}
	row, err := t.PrepareInsert(fields)
	if err != nil {
		return err
	}
	if err := s.ready(ctx, "AddRelationRow"); err != nil {
		return err
	}
	return s.put(ctx, "AddRelationRow", t, relationSortKey(t, row), row)
}

// UpdateRow updates the primary-table row identified by its identity column.
func (s *Store) UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error {
	return s.update(ctx, "UpdateRow", table, schema.KindPrimary, fields)
}

// UpdateRelationTableRow updates the relation row identified by its key columns.
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
	if err := s.ready(ctx, op); err != nil {
		return err
	}

	sk := sortKey(t, storagemodels.Row(key))
	itemKey := s.layout.itemKey(t.Name, sk)
	notFound := rserrors.NewNotFoundError(t.Name, key.String())

	if len(set) == 0 {
		out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
			TableName:      &s.tableName,
			Key:            itemKey,
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return mapError(op, err)
		}
		if out.Item == nil {
			return notFound
		}
		return nil
	}

	expr, names, values, err := buildUpdateExpression(set)
	if err != nil {
		return rserrors.NewConstraintViolation(t.Name, "", rserrors.RuleType, err.Error())
	}
	names["#pk"] = s.layout.PartitionKey
	condition := aws.String("attribute_exists(#pk)")

	checks, cols := s.referenceChecks(t, storagemodels.Row(set), sk)
	if len(checks) == 0 {
		_, err = s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
			TableName:                 &s.tableName,
			Key:                       itemKey,
			UpdateExpression:          &expr,
			ConditionExpression:       condition,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return notFound
		}
		return mapError(op, err)
	}

	items := append([]types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 &s.tableName,
			Key:                       itemKey,
			UpdateExpression:          &expr,
			ConditionExpression:       condition,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		},
	}}, checks...)
	_, err = s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	if failed, ok := cancelledAt(err); ok {
		if failed == 0 {
			return notFound
		}
		return danglingReference(t, cols[failed-1], storagemodels.Row(set))
	}
	return mapError(op, err)
}

// buildUpdateExpression transforms a map of column->value into a SET
// expression with its placeholder maps. Columns are visited in sorted order.
func buildUpdateExpression(set storagemodels.Row) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(set) == 0 {
		return "", nil, nil, errors.New("no updates provided")
	}

	expr := "SET "
	names := make(map[string]string, len(set)+1)
	values := make(map[string]types.AttributeValue, len(set))
	for i, col := range set.Columns() {
		name := "#c" + strconv.Itoa(i)
		value := ":c" + strconv.Itoa(i)
		av, err := encodeValue(set[col])
		if err != nil {
			return "", nil, nil, fmt.Errorf("column %s: %w", col, err)
		}
		if i > 0 {
			expr += ", "
		}
		expr += name + " = " + value
		names[name] = col
		values[value] = av
	}
	return expr, names, values, nil
}

// Close marks the store closed. The SDK client holds no connections of its own.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
