/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an update targets a row that does not exist
	ErrNotFound = errors.New("row not found")

	// ErrConstraintViolation is returned when a write breaks a schema rule
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStorageUnavailable is returned when the backing store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidInput is returned when the caller passes a malformed request
	ErrInvalidInput = errors.New("invalid input")
)

// Constraint rule names reported by ConstraintViolationError.
const (
	RuleNotNull       = "not_null"
	RuleType          = "type"
	RuleFormat        = "format"
	RuleForeignKey    = "foreign_key"
	RuleDuplicateKey  = "duplicate_key"
	RuleUnknownColumn = "unknown_column"
	RuleEngine        = "engine"
)

// NotFoundError represents an update whose target row is absent
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConstraintViolationError represents a write rejected by a schema rule
type ConstraintViolationError struct {
	Table  string
	Column string
	Rule   string
	Detail string
}

func (e *ConstraintViolationError) Error() string {
	msg := fmt.Sprintf("constraint %s violated on %s", e.Rule, e.Table)
	if e.Column != "" {
		msg += "." + e.Column
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// UnavailableError wraps a transport, connection or deadline failure
type UnavailableError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: storage unavailable: %v", e.Backend, e.Operation, e.Err)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(table, key string) error {
	return &NotFoundError{Type: table, Key: key}
}

// NewConstraintViolation creates a new ConstraintViolationError
func NewConstraintViolation(table, column, rule, detail string) error {
	return &ConstraintViolationError{Table: table, Column: column, Rule: rule, Detail: detail}
}

// NewUnavailableError creates a new UnavailableError wrapping cause
func NewUnavailableError(backend, operation string, cause error) error {
	return &UnavailableError{Backend: backend, Operation: operation, Err: cause}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintViolation checks if an error is a constraint violation
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsUnavailable checks if an error reports an unreachable store
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// RuleOf returns the violated rule name, or "" when err is not a constraint violation.
func RuleOf(err error) string {
	var cv *ConstraintViolationError
	if errors.As(err, &cv) {
		return cv.Rule
	}
	return ""
}
