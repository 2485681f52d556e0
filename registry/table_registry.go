/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// The table registry associates Go value-object types with the tables they persist in.

var (
	tableRegistry = make(map[reflect.Type]string)
	mu            sync.RWMutex
)

// RegisterValueObject associates a Go type T with a table name.
func RegisterValueObject[T any](table string) {
	mu.Lock()
	defer mu.Unlock()
	tableRegistry[typeOf[T]()] = table
}

// TableOf retrieves the table registered for type T, if any.
func TableOf[T any]() (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	table, ok := tableRegistry[typeOf[T]()]
	return table, ok
}

// typeOf returns the non-pointer type of T so T and *T share a registration.
func typeOf[T any]() reflect.Type {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
