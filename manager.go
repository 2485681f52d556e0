/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/rowstore/datastore"
)

// Manager is a thread-safe set of named StoragePort instances.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]datastore.StoragePort
}

// NewManager creates an empty Manager
func NewManager() *Manager {
	return &Manager{
		stores: make(map[string]datastore.StoragePort),
	}
}

// Register adds a store under the given name
func (m *Manager) Register(name string, port datastore.StoragePort) error {
	if port == nil {
		return fmt.Errorf("store %q is nil", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stores[name]; exists {
		return fmt.Errorf("store with name %q already registered", name)
	}
	m.stores[name] = port
	return nil
}

// Get retrieves a store by name
func (m *Manager) Get(name string) (datastore.StoragePort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	port, exists := m.stores[name]
	if !exists {
		return nil, fmt.Errorf("store with name %q not found", name)
	}
	return port, nil
}

// Remove unregisters a store and closes it
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	port, exists := m.stores[name]
	delete(m.stores, name)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("store with name %q not found", name)
	}
	return port.Close()
}

// List returns all registered store names in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes and unregisters every store, returning all close errors joined
func (m *Manager) Close() error {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]datastore.StoragePort)
	m.mu.Unlock()

	var errs []error
	for name, port := range stores {
		if err := port.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
