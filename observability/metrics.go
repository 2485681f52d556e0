/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package observability provides Prometheus metrics for RowStore operations.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/rowstore/errors"
)

// StorageBuckets defines histogram buckets suited for storage call latencies,
// ranging from 0.5ms to 10s.
var StorageBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

var (
	// OperationsTotal counts port operations by backend, operation and outcome.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rowstore_operations_total",
			Help: "Storage operations",
		},
		[]string{"backend", "operation", "outcome"},
	)

	// OperationDuration records operation duration in seconds.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rowstore_operation_duration_seconds",
			Help:    "Storage operation duration",
			Buckets: StorageBuckets,
		},
		[]string{"backend", "operation"},
	)

	// RowsReturnedTotal counts rows delivered by queries and streams.
	RowsReturnedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rowstore_rows_returned_total",
			Help: "Rows returned",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(
		OperationsTotal,
		OperationDuration,
		RowsReturnedTotal,
	)
}

// Outcome classifies an operation result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.IsNotFound(err):
		return "not_found"
	case errors.IsConstraintViolation(err):
		return "constraint"
	case errors.IsUnavailable(err):
		return "unavailable"
	case errors.IsValidationError(err):
		return "invalid"
	}
	return "error"
}
