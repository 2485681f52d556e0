/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	rserrors "github.com/suparena/rowstore/errors"
)

// conditionFailed is the cancellation reason code of a failed condition.
const conditionFailed = "ConditionalCheckFailed"

// mapError reports every service or transport failure as unavailable. Key and
// reference conditions are translated by the callers that set them.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var missing *types.ResourceNotFoundException
	if errors.As(err, &missing) {
		return rserrors.NewUnavailableError(backendName, op, fmt.Errorf("table does not exist, run migrate: %w", err))
	}
	if transient(err) {
		err = fmt.Errorf("transient: %w", err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return rserrors.NewUnavailableError(backendName, op, fmt.Errorf("%s: %w", apiErr.ErrorCode(), err))
	}
	return rserrors.NewUnavailableError(backendName, op, err)
}

// transient reports throttling and server-side failures that the caller may
// retry unchanged. The store itself never retries.
func transient(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceUnavailable", "TransactionConflictException":
			return true
		}
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// cancelledAt returns the index of the first transaction item whose condition failed.
func cancelledAt(err error) (int, bool) {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return 0, false
	}
	for i, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == conditionFailed {
			return i, true
		}
	}
	return 0, false
}
