package dbconn

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

type PGConn struct {
	id ID
	*pgx.Conn
	version     string
	isCockroach bool
}

var _ Conn = (*PGConn)(nil)

func ConnectPG(ctx context.Context, id ID, connStr string) (*PGConn, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, err
	}
	var version string
	if err := conn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return nil, err
	}
	return NewPGConn(id, conn, version), nil
}

func NewPGConn(id ID, conn *pgx.Conn, version string) *PGConn {
	return &PGConn{
		id:          id,
		Conn:        conn,
		version:     version,
		isCockroach: strings.Contains(version, "CockroachDB"),
	}
}

func (c *PGConn) ID() ID {
	return c.id
}

// Rollback aborts any open transaction. Outside a transaction the server
// only emits a warning, so this is safe to call unconditionally.
func (c *PGConn) Rollback(ctx context.Context) error {
	_, err := c.Exec(ctx, "ROLLBACK")
	return err
}

func (c *PGConn) Dialect() string {
	if c.isCockroach {
		return "CockroachDB"
	}
	return "PostgreSQL"
}
