/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/storagetest"
	rserrors "github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// startPostgres starts one container for the calling test and returns its DSN.
// Tests are skipped if no container runtime is available.
func startPostgres(t *testing.T) string {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration tests in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	var container *pgmodule.PostgresContainer
	err := noPanic(func() error {
		var runErr error
		container, runErr = pgmodule.Run(ctx,
			"postgres:16-alpine",
			pgmodule.WithDatabase("rowstore_test"),
			pgmodule.WithUsername("test"),
			pgmodule.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		return runErr
	})
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// noPanic runs fn and reports a panic as an error. testcontainers panics when
// no container runtime can be located.
func noPanic(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	return fn()
}

func TestNoPanic(t *testing.T) {
	err := noPanic(func() error { panic("rootless Docker not found") })
	assert.ErrorContains(t, err, "rootless Docker not found")

	assert.NoError(t, noPanic(func() error { return nil }))
	assert.ErrorIs(t, noPanic(func() error { return assert.AnError }), assert.AnError)
}

func TestPostgresConformance(t *testing.T) {
	dsn := startPostgres(t)
	n := 0

	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		ctx := context.Background()
		n++
		schemaName := fmt.Sprintf("conformance_%d", n)

		admin, err := New(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 1, MinConns: 1}, catalog)
		require.NoError(t, err)
		_, err = admin.pool.Exec(ctx, "CREATE SCHEMA "+schemaName)
		require.NoError(t, err)
		require.NoError(t, admin.Close())

		store, err := New(ctx, config.PostgresConfig{
			DSN:      dsn + "&search_path=" + schemaName,
			MaxConns: 4,
			MinConns: 1,
		}, catalog)
		require.NoError(t, err)
		require.NoError(t, store.EnsureSchema(ctx))
		return store
	})
}

func TestNew_BadDSN(t *testing.T) {
	_, err := New(context.Background(), config.PostgresConfig{DSN: "postgres://%zz"}, storagetest.Catalog())
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := config.PostgresConfig{}
	applyDefaults(&cfg)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)

	cfg = config.PostgresConfig{MaxConns: 3}
	applyDefaults(&cfg)
	assert.Equal(t, int32(3), cfg.MaxConns)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		code string
		rule string
	}{
		{"23502", rserrors.RuleNotNull},
		{"23503", rserrors.RuleForeignKey},
		{"23505", rserrors.RuleDuplicateKey},
		{"22001", rserrors.RuleType},
		{"23514", rserrors.RuleEngine},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := mapError("AddRow", "person", &pgconn.PgError{Code: tt.code, ColumnName: "name"})
			assert.True(t, rserrors.IsConstraintViolation(err))
			assert.Equal(t, tt.rule, rserrors.RuleOf(err))
		})
	}

	assert.True(t, rserrors.IsUnavailable(mapError("AddRow", "person", &pgconn.PgError{Code: "57P01"})))
	assert.True(t, rserrors.IsUnavailable(mapError("AddRow", "person", context.DeadlineExceeded)))
	assert.NoError(t, mapError("AddRow", "person", nil))
}

func TestQueryRejectsUnknownTableWithoutConnection(t *testing.T) {
	s := &Store{catalog: storagetest.Catalog()}
	_, err := s.GetObjectDataByQuery(context.Background(), storagemodels.NewQuery("nope"))
	assert.True(t, rserrors.IsValidationError(err))
}
