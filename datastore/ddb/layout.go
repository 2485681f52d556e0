/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// Layout names the key attributes of the single DynamoDB table holding every
// storage table.
type Layout struct {
	// PartitionKey is the partition key attribute name (e.g., "PK")
	PartitionKey string
	// SortKey is the sort key attribute name (e.g., "SK")
	SortKey string
	// EntityType is the attribute recording the storage table of an item
	EntityType string
}

// DefaultLayout holds the default attribute names
var DefaultLayout = Layout{
	PartitionKey: "PK",
	SortKey:      "SK",
	EntityType:   "EntityType",
}

const (
	partitionPrefix = "T#"
	rowPrefix       = "R#"
	relationPrefix  = "K#"
	// sequenceKey is the sort key of the per-table identity counter item.
	sequenceKey  = "#SEQ"
	sequenceAttr = "Seq"
)

// reserved reports whether name collides with an attribute the layout owns.
func (l Layout) reserved(name string) bool {
	return name == l.PartitionKey || name == l.SortKey || name == l.EntityType || name == sequenceAttr
}

// validate checks that no catalog column shadows a layout attribute.
func (l Layout) validate(catalog *schema.Catalog) error {
	if l.PartitionKey == "" || l.SortKey == "" || l.EntityType == "" {
		return fmt.Errorf("dynamodb layout needs partition key, sort key and entity type attribute names")
	}
	for _, t := range catalog.Tables() {
		for _, name := range t.ColumnNames() {
			if l.reserved(name) {
				return fmt.Errorf("table %s column %s collides with a dynamodb key attribute", t.Name, name)
			}
		}
	}
	return nil
}

func partitionValue(table string) string {
	return partitionPrefix + table
}

// rowSortKey is zero padded so primary rows sort by identity.
func rowSortKey(id int64) string {
	return fmt.Sprintf("%s%020d", rowPrefix, id)
}

func relationSortKey(t *schema.Table, row storagemodels.Row) string {
	parts := make([]string, 0, len(t.KeyColumns))
	for _, k := range t.KeyColumns {
		parts = append(parts, schema.FormatValue(row[k]))
	}
	return relationPrefix + strings.Join(parts, "|")
}

// sortKeyPrefix is the prefix shared by every data item of t.
func sortKeyPrefix(t *schema.Table) string {
	if t.IsRelation() {
		return relationPrefix
	}
	return rowPrefix
}

// sortKey derives the sort key of the row identified by key.
func sortKey(t *schema.Table, key storagemodels.Row) string {
	if t.IsRelation() {
		return relationSortKey(t, key)
	}
	id, _ := key[t.IdentityColumn].(int64)
	return rowSortKey(id)
}

// itemKey builds the primary key of an item.
func (l Layout) itemKey(table, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		l.PartitionKey: &types.AttributeValueMemberS{Value: partitionValue(table)},
		l.SortKey:      &types.AttributeValueMemberS{Value: sk},
	}
}

// keyNames maps the key placeholders of partition queries.
func (l Layout) keyNames() map[string]string {
	return map[string]string{"#pk": l.PartitionKey, "#sk": l.SortKey}
}

// pkNames maps the placeholder of item existence conditions.
func (l Layout) pkNames() map[string]string {
	return map[string]string{"#pk": l.PartitionKey}
}
