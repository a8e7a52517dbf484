package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes
const (
	sqlUniqueViolation     = "23505"
	sqlForeignKeyViolation = "23503"
	sqlNotNullViolation    = "23502"
	sqlCheckViolation      = "23514"
	sqlStringTooLong       = "22001"
	sqlBadTextRepr         = "22P02"
	sqlSerialization       = "40001"
	sqlDeadlock            = "40P01"
	sqlLockNotAvailable    = "55P03"
	sqlReadOnlyTx          = "25006"
	sqlCannotConnectNow    = "57P03"
)

var codeBySQLState = map[string]ErrorCode{
	sqlUniqueViolation:     ErrorCodeDuplicateKey,
	sqlForeignKeyViolation: ErrorCodeInvalidArgument,
	sqlStringTooLong:       ErrorCodeInvalidArgument,
	sqlBadTextRepr:         ErrorCodeInvalidArgument,
	sqlNotNullViolation:    ErrorCodeValidation,
	sqlCheckViolation:      ErrorCodeValidation,
	sqlReadOnlyTx:          ErrorCodeUnavailable,
	sqlCannotConnectNow:    ErrorCodeUnavailable,
}

func sqlState(err error) (string, bool) {
	var pg *pgconn.PgError
	if stderrs.As(err, &pg) {
		return pg.Code, true
	}
	return "", false
}

// IsDuplicateKey reports a unique violation anywhere in err's chain
func IsDuplicateKey(err error) bool {
	s, _ := sqlState(err)
	return s == sqlUniqueViolation
}

// IsCheckViolation reports a CHECK constraint failure, e.g. a rate window over its max
func IsCheckViolation(err error) bool {
	s, _ := sqlState(err)
	return s == sqlCheckViolation
}

// DBErrorCode classifies a Postgres error; ok is false for anything else
func DBErrorCode(err error) (ErrorCode, bool) {
	s, ok := sqlState(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if c, ok := codeBySQLState[s]; ok {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its classified code; non-pg errors become ErrorCodeDB
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// transientText matches driver messages that lost their SQLSTATE on the way up
var transientText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

// IsRetryable reports a transient database failure; caller cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if s, ok := sqlState(err); ok {
		switch s {
		case sqlSerialization, sqlDeadlock, sqlLockNotAvailable, sqlCannotConnectNow:
			return true
		}
		return false
	}
	msg := strings.ToLower(Root(err).Error())
	for _, frag := range transientText {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
