/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/schema"
)

// Factory opens a StoragePort for one configured store.
type Factory func(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog) (datastore.StoragePort, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]Factory)
)

// RegisterBackend registers a factory under a backend type name ("memory", "sqlite", ...).
// If a backend is already registered for the given name, it panics to prevent accidental overrides.
func RegisterBackend(name string, f Factory) {
	if f == nil {
		panic(fmt.Sprintf("backend registry: nil factory for %q", name))
	}

	backendMu.Lock()
	defer backendMu.Unlock()
	if _, exists := backends[name]; exists {
		panic(fmt.Sprintf("backend registry: backend %q already registered", name))
	}
	backends[name] = f
}

// GetBackend returns the registered factory for the given backend type.
// If no factory is registered, it returns an error.
func GetBackend(name string) (Factory, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	f, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("backend registry: no backend registered as %q", name)
	}
	return f, nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
