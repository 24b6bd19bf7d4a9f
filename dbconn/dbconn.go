package dbconn

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

type ID string

// OrderedConns holds the two sides of a comparison.
// Index 0 is the source of truth, index 1 the target.
type OrderedConns [2]Conn

type Conn interface {
	ID() ID
	// Close closes the connection.
	Close(ctx context.Context) error
	// Rollback aborts any transaction left open on the connection.
	Rollback(ctx context.Context) error

	Dialect() string
}

func Connect(ctx context.Context, preferredID ID, connStr string) (Conn, error) {
	id := preferredID
	if len(connStr) == 0 {
		return nil, errors.Newf("empty connection string")
	}

	before := strings.SplitN(connStr, "://", 2)
	if !strings.Contains(before[0], "postgres") {
		return nil, errors.Newf("unrecognised scheme %s from %s", before[0], connStr)
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse url: %s", connStr)
	}
	if id == "" {
		id = ID(u.Hostname() + ":" + u.Port())
	}
	return ConnectPG(ctx, id, connStr)
}
