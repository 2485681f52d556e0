/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/schema"
)

func TestBackendRegistry(t *testing.T) {
	called := false
	RegisterBackend("registry-test", func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error) {
		called = true
		return nil, nil
	})

	f, err := GetBackend("registry-test")
	require.NoError(t, err)
	_, _ = f(context.Background(), config.StoreConfig{}, nil)
	assert.True(t, called)
	assert.Contains(t, Backends(), "registry-test")

	assert.Panics(t, func() {
		RegisterBackend("registry-test", f)
	})
	assert.Panics(t, func() {
		RegisterBackend("registry-nil", nil)
	})

	_, err = GetBackend("nope")
	assert.Error(t, err)
}

type address struct {
	Street string
}

type unregistered struct{}

func TestTableRegistry(t *testing.T) {
	RegisterValueObject[address]("address")

	table, ok := TableOf[address]()
	assert.True(t, ok)
	assert.Equal(t, "address", table)

	table, ok = TableOf[*address]()
	assert.True(t, ok)
	assert.Equal(t, "address", table)

	_, ok = TableOf[unregistered]()
	assert.False(t, ok)
}
