/*
Package ddb provides a DynamoDB implementation of the StoragePort interface.

Every storage table is kept in one DynamoDB table using a single-table layout:

	PK = "T#<table>"                  partition per storage table
	SK = "R#<identity, zero padded>"  primary-table rows
	SK = "K#<key tuple>"              relation-table rows
	SK = "#SEQ"                       identity counter of the table

Each item also carries an EntityType attribute naming its storage table.
Attribute names for the keys are configurable through Layout.

Identities come from an atomic ADD on the counter item, so they are never
reused. Inserts and updates that set foreign keys run as TransactWriteItems
with a ConditionCheck per referenced row:

	store, err := ddb.Open(ctx, config.DynamoDBConfig{
	    Table:  "rowstore",
	    Region: "us-east-1",
	}, catalog)

Filtering, ordering, paging and aggregates are evaluated client side over a
paged Query of the table's partition, so cost grows with the table size.
Removing several rows checks references first and then deletes the items
concurrently; the deletes are not atomic as a group.
*/
package ddb
