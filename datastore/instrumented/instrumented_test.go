/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package instrumented_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/instrumented"
	"github.com/suparena/rowstore/datastore/memory"
	"github.com/suparena/rowstore/datastore/storagetest"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/observability"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort {
		return instrumented.Wrap(memory.New(catalog), "memory-conformance")
	})
}

func newRecorded(t *testing.T, backend string) (*instrumented.Store, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return instrumented.Wrap(memory.New(storagetest.Catalog()), backend, instrumented.WithTracerProvider(tp)), recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestSpansAndMetrics(t *testing.T) {
	ctx := context.Background()
	store, recorder := newRecorded(t, "memory-spans")

	id, err := store.AddRow(ctx, "person", storagemodels.Row{"name": "a"})
	require.NoError(t, err)

	_, err = store.AddRow(ctx, "person", storagemodels.Row{})
	require.True(t, errors.IsConstraintViolation(err))

	rows, err := store.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "rowstore.AddRow", spans[0].Name())
	a := attrs(spans[0])
	assert.Equal(t, "memory-spans", a["db.system"].AsString())
	assert.Equal(t, "person", a["rowstore.table"].AsString())
	assert.Equal(t, id, a["rowstore.uid"].AsInt64())

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, int64(1), attrs(spans[2])["rowstore.rows"].AsInt64())

	assert.Equal(t, 1.0, testutil.ToFloat64(observability.OperationsTotal.WithLabelValues("memory-spans", "AddRow", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.OperationsTotal.WithLabelValues("memory-spans", "AddRow", "constraint")))
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.RowsReturnedTotal.WithLabelValues("memory-spans")))
}

func TestStreamIsRecordedWhenDrained(t *testing.T) {
	ctx := context.Background()
	store, recorder := newRecorded(t, "memory-stream")

	for i := 0; i < 5; i++ {
		_, err := store.AddRow(ctx, "person", storagemodels.Row{"name": "s"})
		require.NoError(t, err)
	}

	n := 0
	for res := range store.StreamObjectDataByQuery(ctx, storagemodels.NewQuery("person"), storagemodels.WithPageSize(2)) {
		require.NoError(t, res.Error)
		n++
	}
	assert.Equal(t, 5, n)

	spans := recorder.Ended()
	last := spans[len(spans)-1]
	assert.Equal(t, "rowstore.StreamObjectDataByQuery", last.Name())
	assert.Equal(t, int64(5), attrs(last)["rowstore.rows"].AsInt64())
	assert.Equal(t, 5.0, testutil.ToFloat64(observability.RowsReturnedTotal.WithLabelValues("memory-stream")))
}

func TestDebugLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: zerolog.DebugLevel, Format: "json", Output: &buf})
	ctx := logging.WithContext(context.Background(), logger)

	store := instrumented.Wrap(memory.New(storagetest.Catalog()), "memory-log")
	require.NoError(t, store.RemoveRow(ctx, "person", nil))

	assert.Contains(t, buf.String(), `"operation":"RemoveRow"`)
	assert.Contains(t, buf.String(), `"backend":"memory-log"`)
	assert.Contains(t, buf.String(), `"outcome":"ok"`)
}

func TestEnsureSchemaWithoutMigrator(t *testing.T) {
	store := instrumented.Wrap(memory.New(storagetest.Catalog()), "memory-migrate")
	assert.NoError(t, store.EnsureSchema(context.Background()))
	_, ok := store.Unwrap().(*memory.Store)
	assert.True(t, ok)
}
