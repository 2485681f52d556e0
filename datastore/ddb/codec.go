/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// encodeValue converts a canonical value into an attribute value. DateTime
// values are stored as epoch milliseconds.
func encodeValue(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case time.Time:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(tv.UnixMilli(), 10)}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(tv, 'g', -1, 64)}, nil
	case string:
		// The marshaler would turn "" into NULL.
		return &types.AttributeValueMemberS{Value: tv}, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return av, nil
}

// decodeValue converts an attribute value into the canonical value of c.
func decodeValue(c schema.Column, av types.AttributeValue) (any, error) {
	if av == nil {
		return nil, nil
	}
	if _, ok := av.(*types.AttributeValueMemberNULL); ok {
		return nil, nil
	}

	var err error
	switch c.Type {
	case schema.Integer:
		var n int64
		if err = attributevalue.Unmarshal(av, &n); err == nil {
			return n, nil
		}
	case schema.Real:
		var f float64
		if err = attributevalue.Unmarshal(av, &f); err == nil {
			return f, nil
		}
	case schema.Text:
		var s string
		if err = attributevalue.Unmarshal(av, &s); err == nil {
			return s, nil
		}
	case schema.Boolean:
		var b bool
		if err = attributevalue.Unmarshal(av, &b); err == nil {
			return b, nil
		}
	case schema.DateTime:
		var ms int64
		if err = attributevalue.Unmarshal(av, &ms); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
	default:
		err = fmt.Errorf("unknown column type %q", c.Type)
	}
	return nil, fmt.Errorf("column %s: %w", c.Name, err)
}

// encodeItem builds the full item for row, including key attributes.
func (l Layout) encodeItem(t *schema.Table, sk string, row storagemodels.Row) (map[string]types.AttributeValue, error) {
	item := l.itemKey(t.Name, sk)
	item[l.EntityType] = &types.AttributeValueMemberS{Value: t.Name}
	for _, name := range t.ColumnNames() {
		av, err := encodeValue(row[name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		item[name] = av
	}
	return item, nil
}

// decodeItem converts an item back into a canonical row of t. Missing
// attributes decode as NULL.
func decodeItem(t *schema.Table, item map[string]types.AttributeValue) (storagemodels.Row, error) {
	row := make(storagemodels.Row, len(t.Columns)+1)
	for _, name := range t.ColumnNames() {
		c, _ := t.Column(name)
		v, err := decodeValue(c, item[name])
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		row[name] = v
	}
	return row, nil
}
