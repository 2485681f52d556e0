/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	rserrors "github.com/suparena/rowstore/errors"
)

// PostgreSQL SQLSTATE codes.
const (
	codeNotNull        = "23502"
	codeForeignKey     = "23503"
	codeUniqueViolated = "23505"
	codeStringTooLong  = "22001"
	codeBadTextRep     = "22P02"
)

// mapError translates pgx errors into the errors package taxonomy.
func mapError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return rserrors.NewUnavailableError(backendName, op, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return rserrors.NewUnavailableError(backendName, op, err)
	}
	switch pgErr.Code {
	case codeNotNull:
		return rserrors.NewConstraintViolation(table, pgErr.ColumnName, rserrors.RuleNotNull, pgErr.Message)
	case codeForeignKey:
		return rserrors.NewConstraintViolation(table, pgErr.ColumnName, rserrors.RuleForeignKey, pgErr.Detail)
	case codeUniqueViolated:
		return rserrors.NewConstraintViolation(table, pgErr.ColumnName, rserrors.RuleDuplicateKey, pgErr.Detail)
	case codeStringTooLong, codeBadTextRep:
		return rserrors.NewConstraintViolation(table, pgErr.ColumnName, rserrors.RuleType, pgErr.Message)
	}
	// Class 23 is integrity constraint violation.
	if strings.HasPrefix(pgErr.Code, "23") {
		return rserrors.NewConstraintViolation(table, pgErr.ColumnName, rserrors.RuleEngine, pgErr.Message)
	}
	return rserrors.NewUnavailableError(backendName, op, err)
}
