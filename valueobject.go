/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/storagemodels"
)

// ColumnTag is the struct tag naming the column a field maps to.
const ColumnTag = "column"

// Snapshot builds the value-object snapshot of v for the table registered for T
// with registry.RegisterValueObject. Fields without a column tag, or tagged
// "-", are skipped. Fields tagged omitempty are skipped when zero.
func Snapshot[T any](v T) (storagemodels.ValueObject, error) {
	table, ok := registry.TableOf[T]()
	if !ok {
		return storagemodels.ValueObject{}, errors.NewValidationError("type", fmt.Sprintf("no table registered for %s", reflect.TypeFor[T]()))
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return storagemodels.ValueObject{}, errors.NewValidationError("value", "value object is nil")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return storagemodels.ValueObject{}, errors.NewValidationError("value", fmt.Sprintf("%s is not a struct", rv.Type()))
	}

	fields := make(storagemodels.Row)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(ColumnTag)
		if !ok {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" || name == "" {
			continue
		}
		fv := rv.Field(i)
		if slices.Contains(strings.Split(opts, ","), "omitempty") && fv.IsZero() {
			continue
		}
		fields[name] = fv.Interface()
	}
	return storagemodels.ValueObject{Table: table, Fields: fields}, nil
}

// FindValueObject returns the id of the row already persisting a value equal to v.
func FindValueObject[T any](ctx context.Context, port datastore.StoragePort, v T) (int64, bool, error) {
	vo, err := Snapshot(v)
	if err != nil {
		return 0, false, err
	}
	return port.GetUIDOfAlreadyPersistedValueObject(ctx, vo)
}

// DecodeRows decodes query results into structs using their column tags.
func DecodeRows[T any](rows []storagemodels.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          ColumnTag,
		WeaklyTypedInput: false,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}

	input := make([]map[string]any, len(rows))
	for i, r := range rows {
		input[i] = map[string]any(r)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("decoding rows into %s: %w", reflect.TypeFor[T](), err)
	}
	return out, nil
}
