/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package instrumented decorates a StoragePort with Prometheus metrics,
// OpenTelemetry spans and debug logging.
package instrumented

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/observability"
	"github.com/suparena/rowstore/storagemodels"
)

const instrumentationName = "github.com/suparena/rowstore"

// Store wraps another StoragePort.
type Store struct {
	next    datastore.StoragePort
	backend string
	tracer  trace.Tracer
	logger  zerolog.Logger
}

var _ datastore.StoragePort = (*Store)(nil)

// Option configures the decorator.
type Option func(*Store)

// WithTracerProvider sets the provider spans are created from. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracer = tp.Tracer(instrumentationName)
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Wrap instruments next, labelling everything with backend.
func Wrap(next datastore.StoragePort, backend string, opts ...Option) *Store {
	s := &Store{
		next:    next,
		backend: backend,
		tracer:  otel.Tracer(instrumentationName),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unwrap returns the decorated port.
func (s *Store) Unwrap() datastore.StoragePort {
	return s.next
}

// EnsureSchema forwards to the decorated port when it can create its tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	m, ok := s.next.(datastore.Migrator)
	if !ok {
		return nil
	}
	ctx, span, start := s.begin(ctx, "EnsureSchema", "")
	err := m.EnsureSchema(ctx)
	s.end(ctx, span, "EnsureSchema", "", start, err, -1)
	return err
}

func (s *Store) begin(ctx context.Context, op, table string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "rowstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.backend),
			attribute.String("db.operation", op),
			attribute.String("rowstore.table", table),
		),
	)
	return ctx, span, time.Now()
}

// end records the outcome of one operation. rows < 0 means the operation returns no rows.
func (s *Store) end(ctx context.Context, span trace.Span, op, table string, start time.Time, err error, rows int) {
	elapsed := time.Since(start)
	outcome := observability.Outcome(err)

	observability.OperationsTotal.WithLabelValues(s.backend, op, outcome).Inc()
	observability.OperationDuration.WithLabelValues(s.backend, op).Observe(elapsed.Seconds())
	if rows > 0 {
		observability.RowsReturnedTotal.WithLabelValues(s.backend).Add(float64(rows))
	}

	if rows >= 0 {
		span.SetAttributes(attribute.Int("rowstore.rows", rows))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	s.loggerFor(ctx).Debug().
		Err(err).
		Str("backend", s.backend).
		Str("operation", op).
		Str("table", table).
		Str("outcome", outcome).
		Dur("duration", elapsed).
		Msg("storage operation")
}

func (s *Store) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *Store) AddRow(ctx context.Context, table string, fields storagemodels.Row) (int64, error) {
	ctx, span, start := s.begin(ctx, "AddRow", table)
	id, err := s.next.AddRow(ctx, table, fields)
	if err == nil {
		span.SetAttributes(attribute.Int64("rowstore.uid", id))
	}
	s.end(ctx, span, "AddRow", table, start, err, -1)
	return id, err
}

func (s *Store) AddRelationRow(ctx context.Context, table string, fields storagemodels.Row) error {
	ctx, span, start := s.begin(ctx, "AddRelationRow", table)
	err := s.next.AddRelationRow(ctx, table, fields)
	s.end(ctx, span, "AddRelationRow", table, start, err, -1)
	return err
}

func (s *Store) UpdateRow(ctx context.Context, table string, fields storagemodels.Row) error {
	ctx, span, start := s.begin(ctx, "UpdateRow", table)
	err := s.next.UpdateRow(ctx, table, fields)
	s.end(ctx, span, "UpdateRow", table, start, err, -1)
	return err
}

func (s *Store) UpdateRelationTableRow(ctx context.Context, table string, fields storagemodels.Row) error {
	ctx, span, start := s.begin(ctx, "UpdateRelationTableRow", table)
	err := s.next.UpdateRelationTableRow(ctx, table, fields)
	s.end(ctx, span, "UpdateRelationTableRow", table, start, err, -1)
	return err
}

func (s *Store) RemoveRow(ctx context.Context, table string, where storagemodels.Predicate) error {
	ctx, span, start := s.begin(ctx, "RemoveRow", table)
	err := s.next.RemoveRow(ctx, table, where)
	s.end(ctx, span, "RemoveRow", table, start, err, -1)
	return err
}

func (s *Store) GetMaxValueFromTable(ctx context.Context, table string, where storagemodels.Predicate, column string) (any, bool, error) {
	ctx, span, start := s.begin(ctx, "GetMaxValueFromTable", table)
	span.SetAttributes(attribute.String("rowstore.column", column))
	v, ok, err := s.next.GetMaxValueFromTable(ctx, table, where, column)
	s.end(ctx, span, "GetMaxValueFromTable", table, start, err, -1)
	return v, ok, err
}

func (s *Store) GetObjectCountByQuery(ctx context.Context, q *storagemodels.QuerySpec) (int, error) {
	table := tableOf(q)
	ctx, span, start := s.begin(ctx, "GetObjectCountByQuery", table)
	n, err := s.next.GetObjectCountByQuery(ctx, q)
	s.end(ctx, span, "GetObjectCountByQuery", table, start, err, -1)
	return n, err
}

func (s *Store) GetObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec) ([]storagemodels.Row, error) {
	table := tableOf(q)
	ctx, span, start := s.begin(ctx, "GetObjectDataByQuery", table)
	rows, err := s.next.GetObjectDataByQuery(ctx, q)
	s.end(ctx, span, "GetObjectDataByQuery", table, start, err, len(rows))
	return rows, err
}

func (s *Store) StreamObjectDataByQuery(ctx context.Context, q *storagemodels.QuerySpec, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	table := tableOf(q)
	ctx, span, start := s.begin(ctx, "StreamObjectDataByQuery", table)
	in := s.next.StreamObjectDataByQuery(ctx, q, opts...)
	out := make(chan storagemodels.StreamResult, storagemodels.ApplyStreamOptions(opts...).BufferSize)

	go func() {
		defer close(out)
		var rows int
		var streamErr error
		defer func() {
			s.end(ctx, span, "StreamObjectDataByQuery", table, start, streamErr, rows)
		}()

		for res := range in {
			if res.Error != nil {
				streamErr = res.Error
			} else {
				rows++
			}
			select {
			case <-ctx.Done():
				streamErr = ctx.Err()
				return
			case out <- res:
			}
		}
	}()

	return out
}

func (s *Store) GetUIDOfAlreadyPersistedValueObject(ctx context.Context, vo storagemodels.ValueObject) (int64, bool, error) {
	ctx, span, start := s.begin(ctx, "GetUIDOfAlreadyPersistedValueObject", vo.Table)
	id, found, err := s.next.GetUIDOfAlreadyPersistedValueObject(ctx, vo)
	span.SetAttributes(attribute.Bool("rowstore.found", found))
	s.end(ctx, span, "GetUIDOfAlreadyPersistedValueObject", vo.Table, start, err, -1)
	return id, found, err
}

func (s *Store) Close() error {
	return s.next.Close()
}

func tableOf(q *storagemodels.QuerySpec) string {
	if q == nil {
		return ""
	}
	return q.Table
}
