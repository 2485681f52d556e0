/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore"
	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/instrumented"
	"github.com/suparena/rowstore/datastore/storagetest"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

const tagSchema = `
tables:
  - name: tag
    columns:
      - {name: label, type: text, not_null: true}
`

func TestOpen_Memory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		port, err := rowstore.Open(context.Background(), config.StoreConfig{Type: "memory"}, catalog)
		require.NoError(t, err)
		t.Cleanup(func() { _ = port.Close() })
		return port
	})
}

func TestOpen_SQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		cfg := config.StoreConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "rowstore.db")},
		}
		port, err := rowstore.Open(context.Background(), cfg, catalog)
		require.NoError(t, err)
		t.Cleanup(func() { _ = port.Close() })
		return port
	})
}

func TestOpen_WrapsWithInstrumentation(t *testing.T) {
	port, err := rowstore.Open(context.Background(), config.StoreConfig{Type: "memory"}, storagetest.Catalog())
	require.NoError(t, err)
	defer port.Close()

	_, ok := port.(*instrumented.Store)
	assert.True(t, ok)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := rowstore.Open(context.Background(), config.StoreConfig{Type: "cassandra"}, storagetest.Catalog())
	assert.Error(t, err)
}

func TestOpen_RequiresCatalog(t *testing.T) {
	_, err := rowstore.Open(context.Background(), config.StoreConfig{Type: "memory"}, nil)
	assert.Error(t, err)
}

func TestOpen_WithoutMigrate(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "bare.db")},
	}

	port, err := rowstore.Open(ctx, cfg, storagetest.Catalog(), rowstore.WithMigrate(false))
	require.NoError(t, err)
	defer port.Close()

	_, err = port.AddRow(ctx, "person", storagemodels.Row{"name": "a"})
	assert.Error(t, err, "tables are not created without migration")

	require.NoError(t, port.(datastore.Migrator).EnsureSchema(ctx))
	uid, err := port.AddRow(ctx, "person", storagemodels.Row{"name": "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)
}

func TestOpenAll(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(tagSchema), 0o600))

	cfg := &config.Config{
		Schema: config.SchemaConfig{File: schemaPath, MigrateOnStart: true},
		Stores: map[string]config.StoreConfig{
			"default": {Type: "memory"},
			"archive": {Type: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "archive.db")}},
		},
	}

	ctx := context.Background()
	m, catalog, err := rowstore.OpenAll(ctx, cfg)
	require.NoError(t, err)
	defer m.Close()

	assert.Len(t, catalog.Tables(), 1)
	assert.Equal(t, []string{"archive", "default"}, m.List())

	archive, err := m.Get("archive")
	require.NoError(t, err)
	uid, err := archive.AddRow(ctx, "tag", storagemodels.Row{"label": "go"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)
}

func TestOpenAll_ClosesOnFailure(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(tagSchema), 0o600))

	cfg := &config.Config{
		Schema: config.SchemaConfig{File: schemaPath},
		Stores: map[string]config.StoreConfig{
			"a": {Type: "memory"},
			"b": {Type: "sqlite"},
		},
	}
	_, _, err := rowstore.OpenAll(context.Background(), cfg)
	assert.ErrorContains(t, err, `store "b"`)

	cfg.Schema.File = ""
	_, _, err = rowstore.OpenAll(context.Background(), cfg)
	assert.Error(t, err)
}

func TestGetVersionInfo(t *testing.T) {
	info := rowstore.GetVersionInfo()
	assert.Equal(t, rowstore.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Subset(t, info.Backends, []string{"dynamodb", "memory", "mysql", "postgres", "sqlite"})
}
