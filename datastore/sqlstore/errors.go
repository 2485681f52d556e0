/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/suparena/rowstore/errors"
)

// MySQL server error numbers.
const (
	mysqlBadNull            = 1048
	mysqlDuplicateEntry     = 1062
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlDataTooLong        = 1406
	mysqlTruncatedWrongType = 1366
	mysqlLockWaitTimeout    = 1205
	mysqlDeadlock           = 1213
)

// mapError translates a driver error into the errors package taxonomy.
func (s *Store) mapError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	backend := s.dialect.Name()

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, sql.ErrConnDone) ||
		stderrors.Is(err, mysql.ErrInvalidConn) {
		return errors.NewUnavailableError(backend, op, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.NewUnavailableError(backend, op, err)
	}

	var sqliteErr *msqlite.Error
	if stderrors.As(err, &sqliteErr) {
		return mapSQLite(backend, op, table, sqliteErr)
	}
	var mysqlErr *mysql.MySQLError
	if stderrors.As(err, &mysqlErr) {
		return mapMySQL(backend, op, table, mysqlErr)
	}
	return errors.NewUnavailableError(backend, op, err)
}

func mapSQLite(backend, op, table string, err *msqlite.Error) error {
	switch err.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errors.NewConstraintViolation(table, "", errors.RuleForeignKey, err.Error())
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return errors.NewConstraintViolation(table, "", errors.RuleDuplicateKey, err.Error())
	case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
		return errors.NewConstraintViolation(table, "", errors.RuleNotNull, err.Error())
	}
	// Primary result code.
	if err.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT {
		return errors.NewConstraintViolation(table, "", errors.RuleEngine, err.Error())
	}
	return errors.NewUnavailableError(backend, op, err)
}

func mapMySQL(backend, op, table string, err *mysql.MySQLError) error {
	switch err.Number {
	case mysqlBadNull:
		return errors.NewConstraintViolation(table, "", errors.RuleNotNull, err.Message)
	case mysqlDuplicateEntry:
		return errors.NewConstraintViolation(table, "", errors.RuleDuplicateKey, err.Message)
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		return errors.NewConstraintViolation(table, "", errors.RuleForeignKey, err.Message)
	case mysqlDataTooLong, mysqlTruncatedWrongType:
		return errors.NewConstraintViolation(table, "", errors.RuleType, err.Message)
	case mysqlLockWaitTimeout, mysqlDeadlock:
		return errors.NewUnavailableError(backend, op, err)
	}
	return errors.NewUnavailableError(backend, op, err)
}
