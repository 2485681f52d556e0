/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/datastore/storagetest"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

func TestValueCodec(t *testing.T) {
	when := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)

	tests := []struct {
		name   string
		column schema.Column
		value  any
		want   types.AttributeValue
	}{
		{"null", schema.Column{Type: schema.Text}, nil, &types.AttributeValueMemberNULL{Value: true}},
		{"integer", schema.Column{Type: schema.Integer}, int64(-42), &types.AttributeValueMemberN{Value: "-42"}},
		{"real", schema.Column{Type: schema.Real}, 2.5, &types.AttributeValueMemberN{Value: "2.5"}},
		{"text", schema.Column{Type: schema.Text}, "héllo", &types.AttributeValueMemberS{Value: "héllo"}},
		{"empty text", schema.Column{Type: schema.Text}, "", &types.AttributeValueMemberS{Value: ""}},
		{"boolean", schema.Column{Type: schema.Boolean}, true, &types.AttributeValueMemberBOOL{Value: true}},
		{"datetime", schema.Column{Type: schema.DateTime}, when, &types.AttributeValueMemberN{Value: "1735787045006"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := encodeValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, av)

			back, err := decodeValue(tt.column, av)
			require.NoError(t, err)
			assert.Equal(t, tt.value, back)
		})
	}
}

func TestDecodeValue_Mismatch(t *testing.T) {
	_, err := decodeValue(schema.Column{Name: "age", Type: schema.Integer}, &types.AttributeValueMemberS{Value: "x"})
	assert.Error(t, err)

	v, err := decodeValue(schema.Column{Type: schema.Integer}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestItemRoundTrip(t *testing.T) {
	catalog := storagetest.Catalog()
	person, err := catalog.Table("person")
	require.NoError(t, err)

	row, err := person.PrepareInsert(storagemodels.Row{"name": "Ada", "age": 36})
	require.NoError(t, err)
	row["uid"] = int64(7)

	item, err := DefaultLayout.encodeItem(person, rowSortKey(7), row)
	require.NoError(t, err)
	assert.Equal(t, "T#person", str(item["PK"]))
	assert.Equal(t, "R#00000000000000000007", str(item["SK"]))

	back, err := decodeItem(person, item)
	require.NoError(t, err)
	assert.Equal(t, row, back)
}

func TestBuildUpdateExpression(t *testing.T) {
	expr, names, values, err := buildUpdateExpression(storagemodels.Row{"score": 1.5, "age": nil})
	require.NoError(t, err)
	assert.Equal(t, "SET #c0 = :c0, #c1 = :c1", expr)
	assert.Equal(t, map[string]string{"#c0": "age", "#c1": "score"}, names)
	assert.Equal(t, &types.AttributeValueMemberNULL{Value: true}, values[":c0"])

	_, _, _, err = buildUpdateExpression(nil)
	assert.Error(t, err)
}

func TestSortKeys(t *testing.T) {
	catalog := storagetest.Catalog()
	membership, _ := catalog.Table("membership")
	team, _ := catalog.Table("team")

	assert.Equal(t, "K#3|9", relationSortKey(membership, storagemodels.Row{"person": int64(3), "team": int64(9), "role": "x"}))
	assert.Equal(t, "R#00000000000000000012", sortKey(team, storagemodels.Row{"team_id": int64(12)}))
	assert.Less(t, rowSortKey(9), rowSortKey(10))
}

func TestCancelledAt(t *testing.T) {
	err := &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
		{Code: aws.String("None")},
		{Code: aws.String("ConditionalCheckFailed")},
	}}
	i, ok := cancelledAt(err)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = cancelledAt(assert.AnError)
	assert.False(t, ok)
}
