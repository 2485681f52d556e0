/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-process API understanding the expressions the store
// renders. It keeps items of every table in one map.
type fakeDynamo struct {
	mu     sync.Mutex
	layout Layout
	tables map[string]bool
	items  map[string]map[string]types.AttributeValue

	queryErr error
	queries  int
}

var _ API = (*fakeDynamo)(nil)

func newFakeDynamo(layout Layout, tables ...string) *fakeDynamo {
	f := &fakeDynamo{
		layout: layout,
		tables: make(map[string]bool),
		items:  make(map[string]map[string]types.AttributeValue),
	}
	for _, t := range tables {
		f.tables[t] = true
	}
	return f
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) keyOf(item map[string]types.AttributeValue) string {
	return str(item[f.layout.PartitionKey]) + "\x00" + str(item[f.layout.SortKey])
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// holds evaluates the only condition forms the store uses.
func holds(condition *string, exists bool) bool {
	switch aws.ToString(condition) {
	case "attribute_exists(#pk)":
		return exists
	case "attribute_not_exists(#pk)":
		return !exists
	}
	return true
}

func errConditionalCheck() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[f.keyOf(in.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: clone(item)}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(in.Item)
	if _, exists := f.items[k]; !holds(in.ConditionExpression, exists) {
		return nil, errConditionalCheck()
	}
	f.items[k] = clone(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(in.Key)
	if _, exists := f.items[k]; !holds(in.ConditionExpression, exists) {
		return nil, errConditionalCheck()
	}
	attrs := f.apply(k, in.Key, aws.ToString(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	return &sdk.UpdateItemOutput{Attributes: attrs}, nil
}

// apply executes "ADD #n :v" or "SET #a = :a, #b = :b" and returns the updated attributes.
func (f *fakeDynamo) apply(k string, key map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) map[string]types.AttributeValue {
	item, ok := f.items[k]
	if !ok {
		item = clone(key)
		f.items[k] = item
	}
	updated := make(map[string]types.AttributeValue)

	if rest, ok := strings.CutPrefix(expr, "ADD "); ok {
		parts := strings.Fields(rest)
		attr := names[parts[0]]
		var current int64
		if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		delta, _ := strconv.ParseInt(values[parts[1]].(*types.AttributeValueMemberN).Value, 10, 64)
		item[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
		updated[attr] = item[attr]
		return updated
	}

	for _, assignment := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
		name, value, _ := strings.Cut(assignment, " = ")
		item[names[name]] = values[value]
		updated[names[name]] = values[value]
	}
	return updated
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, f.keyOf(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	pk := str(in.ExpressionAttributeValues[":pk"])
	prefix := str(in.ExpressionAttributeValues[":prefix"])
	start := ""
	if in.ExclusiveStartKey != nil {
		start = str(in.ExclusiveStartKey[f.layout.SortKey])
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		sk := str(item[f.layout.SortKey])
		if str(item[f.layout.PartitionKey]) == pk && strings.HasPrefix(sk, prefix) && sk > start {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return str(matched[i][f.layout.SortKey]) < str(matched[j][f.layout.SortKey])
	})

	out := &sdk.QueryOutput{}
	limit := int(aws.ToInt32(in.Limit))
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
		last := matched[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			f.layout.PartitionKey: last[f.layout.PartitionKey],
			f.layout.SortKey:      last[f.layout.SortKey],
		}
	}
	for _, item := range matched {
		out.Items = append(out.Items, clone(item))
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	cancelled := false
	for i, ti := range in.TransactItems {
		var key map[string]types.AttributeValue
		var condition *string
		switch {
		case ti.Put != nil:
			key, condition = ti.Put.Item, ti.Put.ConditionExpression
		case ti.Update != nil:
			key, condition = ti.Update.Key, ti.Update.ConditionExpression
		case ti.ConditionCheck != nil:
			key, condition = ti.ConditionCheck.Key, ti.ConditionCheck.ConditionExpression
		}
		_, exists := f.items[f.keyOf(key)]
		reasons[i].Code = aws.String("None")
		if !holds(condition, exists) {
			reasons[i].Code = aws.String(conditionFailed)
			cancelled = true
		}
	}
	if cancelled {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[f.keyOf(ti.Put.Item)] = clone(ti.Put.Item)
		case ti.Update != nil:
			u := ti.Update
			f.apply(f.keyOf(u.Key), u.Key, aws.ToString(u.UpdateExpression), u.ExpressionAttributeNames, u.ExpressionAttributeValues)
		}
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if !f.tables[name] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   aws.String(name),
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeDynamo) CreateTable(ctx context.Context, in *sdk.CreateTableInput, _ ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[aws.ToString(in.TableName)] = true
	return &sdk.CreateTableOutput{}, nil
}
