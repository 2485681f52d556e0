/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package observability

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/errors"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry once they have been observed.
func TestMetricsRegistered(t *testing.T) {
	OperationsTotal.WithLabelValues("test", "AddRow", "ok").Inc()
	OperationDuration.WithLabelValues("test", "AddRow").Observe(0.01)
	RowsReturnedTotal.WithLabelValues("test").Add(3)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	expected := map[string]bool{
		"rowstore_operations_total":           false,
		"rowstore_operation_duration_seconds": false,
		"rowstore_rows_returned_total":        false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "metric %s not registered", name)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.NewNotFoundError("person", "uid=1"), "not_found"},
		{fmt.Errorf("wrapped: %w", errors.NewConstraintViolation("person", "name", errors.RuleNotNull, "")), "constraint"},
		{errors.NewUnavailableError("sqlite", "AddRow", assert.AnError), "unavailable"},
		{errors.NewValidationError("table", "unknown"), "invalid"},
		{assert.AnError, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}
