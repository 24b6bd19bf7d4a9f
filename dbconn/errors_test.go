package dbconn

import (
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransientError(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		err      error
		expected bool
	}{
		{desc: "nil", err: nil, expected: false},
		{desc: "connection exception", err: &pgconn.PgError{Code: pgerrcode.ConnectionException}, expected: true},
		{desc: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, expected: true},
		{desc: "admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, expected: true},
		{desc: "query canceled", err: &pgconn.PgError{Code: pgerrcode.QueryCanceled}, expected: true},
		{desc: "too many connections", err: &pgconn.PgError{Code: pgerrcode.TooManyConnections}, expected: true},
		{desc: "net timeout", err: &net.DNSError{IsTimeout: true}, expected: true},
		{desc: "wrapped transient", err: errors.Wrap(&pgconn.PgError{Code: pgerrcode.ConnectionFailure}, "running query"), expected: true},
		{desc: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, expected: false},
		{desc: "syntax error", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, expected: false},
		{desc: "plain error", err: errors.New("boom"), expected: false},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if got := IsTransientError(tc.err); got != tc.expected {
				t.Errorf("IsTransientError(%v) = %t, expected %t", tc.err, got, tc.expected)
			}
		})
	}
}

func TestIsCatalogError(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		err      error
		expected bool
	}{
		{desc: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, expected: true},
		{desc: "undefined function", err: &pgconn.PgError{Code: pgerrcode.UndefinedFunction}, expected: true},
		{desc: "syntax error", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, expected: true},
		{desc: "wrapped", err: errors.Wrap(&pgconn.PgError{Code: pgerrcode.UndefinedObject}, "looking up sequence"), expected: true},
		{desc: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, expected: false},
		{desc: "plain error", err: errors.New("boom"), expected: false},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if got := IsCatalogError(tc.err); got != tc.expected {
				t.Errorf("IsCatalogError(%v) = %t, expected %t", tc.err, got, tc.expected)
			}
		})
	}
}
