package dbconn

import (
	"io"
	"net"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsTransientError reports whether err is an operational failure likely to
// succeed on retry: a dropped or refused connection, a server shutdown or
// restart, or a cancelled/timed out statement.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) {
			return true
		}
		return pgErr.Code == pgerrcode.TooManyConnections
	}
	return false
}

// IsCatalogError reports whether err is a catalog or programming failure
// (missing relation, undefined object, malformed query). These are never
// retried; callers convert them into verdicts instead of propagating.
func IsCatalogError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 42 - Syntax Error or Access Rule Violation, which covers
		// undefined_table, undefined_object and friends.
		return strings.HasPrefix(pgErr.Code, "42")
	}
	return false
}

// IsMissingRelationError reports whether err is specifically a lookup of a
// relation that does not exist.
func IsMissingRelationError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UndefinedTable
	}
	return false
}
