package dbconn

import (
	"context"
)

type FakeConn struct {
	id ID
}

var _ Conn = FakeConn{}

func MakeFakeConn(id ID) FakeConn {
	return FakeConn{id: id}
}

func (f FakeConn) ID() ID {
	return f.id
}

func (f FakeConn) Close(ctx context.Context) error {
	return nil
}

func (f FakeConn) Rollback(ctx context.Context) error {
	return nil
}

func (f FakeConn) Dialect() string {
	return "fake"
}
