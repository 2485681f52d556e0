/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/storagetest"
	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

func newFakeStore(t *testing.T, catalog *schema.Catalog) (*Store, *fakeDynamo) {
	t.Helper()
	fake := newFakeDynamo(DefaultLayout, "rows")
	store, err := New(fake, "rows", DefaultLayout, catalog)
	require.NoError(t, err)
	// Small pages so every query crosses page boundaries.
	store.pageSize = 3
	return store, fake
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		store, _ := newFakeStore(t, catalog)
		return store
	})
}

// getLiveStore connects to a real table (or DynamoDB Local) configured in
// the environment or a .env file.
func getLiveStore(t *testing.T, catalog *schema.Catalog, suffix string) *Store {
	t.Helper()
	_ = godotenv.Load()

	table := os.Getenv("ROWSTORE_DDB_TEST_TABLE")
	if table == "" {
		t.Skip("ROWSTORE_DDB_TEST_TABLE not set, skipping DynamoDB integration tests")
	}

	ctx := context.Background()
	cfg := config.DynamoDBConfig{
		Table:     table + "-" + suffix,
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("ROWSTORE_DDB_ENDPOINT"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
	}
	store, err := Open(ctx, cfg, catalog)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(ctx))

	t.Cleanup(func() {
		if client, ok := store.client.(*sdk.Client); ok {
			_, _ = client.DeleteTable(context.Background(), &sdk.DeleteTableInput{TableName: aws.String(cfg.Table)})
		}
	})
	return store
}

func TestLiveConformance(t *testing.T) {
	n := 0
	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		n++
		return getLiveStore(t, catalog, fmt.Sprintf("%d-%d", time.Now().Unix(), n))
	})
}

func TestNew_RejectsReservedColumns(t *testing.T) {
	catalog, err := schema.NewCatalog(schema.Table{
		Name:    "bad",
		Columns: []schema.Column{{Name: "PK", Type: schema.Text}},
	})
	require.NoError(t, err)

	_, err = New(newFakeDynamo(DefaultLayout), "rows", DefaultLayout, catalog)
	assert.Error(t, err)

	_, err = New(newFakeDynamo(DefaultLayout), "rows", Layout{PartitionKey: "PK"}, storagetest.Catalog())
	assert.Error(t, err)
}

func TestOpen_RequiresTable(t *testing.T) {
	_, err := Open(context.Background(), config.DynamoDBConfig{Region: "us-east-1"}, storagetest.Catalog())
	assert.Error(t, err)
}

func TestItemLayout(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t, storagetest.Catalog())

	id, err := store.AddRow(ctx, "team", storagemodels.Row{"label": "core"})
	require.NoError(t, err)
	pid, err := store.AddRow(ctx, "person", storagemodels.Row{"name": "Ada"})
	require.NoError(t, err)
	require.NoError(t, store.AddRelationRow(ctx, "membership", storagemodels.Row{"person": pid, "team": id}))

	item, ok := fake.items["T#team\x00R#00000000000000000001"]
	require.True(t, ok)
	assert.Equal(t, "team", str(item["EntityType"]))
	assert.Equal(t, "core", str(item["label"]))

	_, ok = fake.items["T#membership\x00K#1|1"]
	assert.True(t, ok)

	seq, ok := fake.items["T#team\x00#SEQ"]
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, seq[sequenceAttr])

	// counters and rows do not mix in queries
	rows, err := store.GetObjectDataByQuery(ctx, storagemodels.NewQuery("team"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadRows_Pages(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t, storagetest.Catalog())

	for i := 0; i < 7; i++ {
		_, err := store.AddRow(ctx, "team", storagemodels.Row{"label": fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
	}
	fake.queries = 0

	n, err := store.GetObjectCountByQuery(ctx, storagemodels.NewQuery("team"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 3, fake.queries)
}

func TestQueryErrors(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t, storagetest.Catalog())

	fake.queryErr = &types.ResourceNotFoundException{Message: aws.String("no table")}
	_, err := store.GetObjectDataByQuery(ctx, storagemodels.NewQuery("team"))
	assert.True(t, rserrors.IsUnavailable(err))
	assert.ErrorContains(t, err, "run migrate")
	assert.Equal(t, 1, fake.queries)

	fake.queries = 0
	fake.queryErr = &smithy.GenericAPIError{Code: "ThrottlingException"}
	_, err = store.GetObjectDataByQuery(ctx, storagemodels.NewQuery("team"))
	assert.True(t, rserrors.IsUnavailable(err))
	assert.ErrorContains(t, err, "transient")
	assert.Equal(t, 1, fake.queries, "throttled queries are reported, not retried")
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeStore(t, storagetest.Catalog())
	require.NoError(t, store.Close())

	_, err := store.AddRow(ctx, "team", storagemodels.Row{"label": "x"})
	assert.True(t, rserrors.IsUnavailable(err))
	_, err = store.GetObjectDataByQuery(ctx, storagemodels.NewQuery("team"))
	assert.True(t, rserrors.IsUnavailable(err))
}

func TestRemoveRow_SelfReferences(t *testing.T) {
	ctx := context.Background()
	catalog, err := schema.NewCatalog(schema.Table{
		Name: "node",
		Columns: []schema.Column{
			{Name: "label", Type: schema.Text},
			{Name: "parent", Type: schema.Integer, References: "node"},
		},
	})
	require.NoError(t, err)
	store, _ := newFakeStore(t, catalog)

	root, err := store.AddRow(ctx, "node", storagemodels.Row{"label": "tree"})
	require.NoError(t, err)
	_, err = store.AddRow(ctx, "node", storagemodels.Row{"label": "tree", "parent": root})
	require.NoError(t, err)
	other, err := store.AddRow(ctx, "node", storagemodels.Row{"label": "other", "parent": root})
	require.NoError(t, err)

	err = store.RemoveRow(ctx, "node", storagemodels.Predicate{"label": "tree"})
	assert.Equal(t, rserrors.RuleForeignKey, rserrors.RuleOf(err))

	require.NoError(t, store.RemoveRow(ctx, "node", storagemodels.Predicate{"uid": other}))
	require.NoError(t, store.RemoveRow(ctx, "node", storagemodels.Predicate{"label": "tree"}))
	n, err := store.GetObjectCountByQuery(ctx, storagemodels.NewQuery("node"))
	require.NoError(t, err)
	assert.Zero(t, n)

	// a row may point at itself
	self, err := store.AddRow(ctx, "node", storagemodels.Row{"label": "loop"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateRow(ctx, "node", storagemodels.Row{"uid": self, "parent": self}))
	require.NoError(t, store.RemoveRow(ctx, "node", storagemodels.Predicate{"uid": self}))
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo(DefaultLayout)
	store, err := New(fake, "fresh", DefaultLayout, storagetest.Catalog())
	require.NoError(t, err)

	require.NoError(t, store.EnsureSchema(ctx))
	assert.True(t, fake.tables["fresh"])
	require.NoError(t, store.EnsureSchema(ctx))
}
