package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/complex-api/internal/repository"
	"github.com/caremesh/complex-api/pkg/logger"
)

// stubConnector stands in for a real driver so the coordinator can be probed
// without a running database. sql.OpenDB takes the connector directly, which
// keeps each test on its own pool.
type stubConnector struct {
	connectErr error
	execErr    error
	connects   int
	conns      []*stubConn
}

func (c *stubConnector) Connect(ctx context.Context) (driver.Conn, error) {
	c.connects++
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	conn := &stubConn{execErr: c.execErr}
	c.conns = append(c.conns, conn)
	return conn, nil
}

func (c *stubConnector) Driver() driver.Driver { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("open via connector only")
}

type stubConn struct {
	execErr error
	execs   int
	txs     []*stubTx
}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	tx := &stubTx{}
	c.txs = append(c.txs, tx)
	return tx, nil
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs++
	if c.execErr != nil {
		return nil, c.execErr
	}
	return driver.RowsAffected(1), nil
}

type stubTx struct {
	commits   int
	rollbacks int
}

func (t *stubTx) Commit() error { t.commits++; return nil }

func (t *stubTx) Rollback() error { t.rollbacks++; return nil }

func newTxnFixture(connector *stubConnector) *TxnCoordinator {
	db := sqlx.NewDb(sql.OpenDB(connector), "postgres")
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewTxnCoordinator(db, log, nil)
}

func TestBeginDegradesWhenStoreIsUnreachable(t *testing.T) {
	connector := &stubConnector{connectErr: errors.New("connection refused")}
	c := newTxnFixture(connector)

	uow, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.False(t, uow.Transactional())
	assert.Equal(t, repository.TxnCapabilityUnsupported, c.Capability())

	// Pass-through units of work make every lifecycle call a no-op.
	assert.NoError(t, c.Commit(context.Background(), uow))
	assert.NoError(t, c.Abort(context.Background(), uow))
	c.End(context.Background(), uow)

	// The verdict is cached; later callers never touch the store again.
	seen := connector.connects
	uow, err = c.Begin(context.Background())
	require.NoError(t, err)
	assert.False(t, uow.Transactional())
	assert.Equal(t, seen, connector.connects)
}

func TestBeginDegradesWhenProbeStatementFails(t *testing.T) {
	connector := &stubConnector{execErr: errors.New("transactions disabled")}
	c := newTxnFixture(connector)

	uow, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.False(t, uow.Transactional())
	assert.Equal(t, repository.TxnCapabilityUnsupported, c.Capability())

	// The failed probe transaction must not be left open.
	require.Len(t, connector.conns, 1)
	require.Len(t, connector.conns[0].txs, 1)
	assert.Equal(t, 1, connector.conns[0].txs[0].rollbacks)
}

func TestBeginKeepsProbeTransactionOnSuccess(t *testing.T) {
	connector := &stubConnector{}
	c := newTxnFixture(connector)

	uow, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.True(t, uow.Transactional())
	assert.Equal(t, repository.TxnCapabilitySupported, c.Capability())

	require.NoError(t, c.Commit(context.Background(), uow))
	require.Len(t, connector.conns, 1)
	require.Len(t, connector.conns[0].txs, 1)
	assert.Equal(t, 1, connector.conns[0].txs[0].commits)

	// Finished units of work absorb repeated lifecycle calls.
	assert.NoError(t, c.Commit(context.Background(), uow))
	assert.NoError(t, c.Abort(context.Background(), uow))
	c.End(context.Background(), uow)
	assert.Equal(t, 1, connector.conns[0].txs[0].commits)
	assert.Equal(t, 0, connector.conns[0].txs[0].rollbacks)
}

func TestBeginSkipsProbeOnceCapabilityIsKnown(t *testing.T) {
	connector := &stubConnector{}
	c := newTxnFixture(connector)

	first, err := c.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Commit(context.Background(), first))

	second, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Transactional())
	require.NoError(t, c.Abort(context.Background(), second))

	// Only the first Begin issues the probe statement.
	var execs int
	for _, conn := range connector.conns {
		execs += conn.execs
	}
	assert.Equal(t, 1, execs)
}

func TestEndRollsBackUnfinishedWork(t *testing.T) {
	connector := &stubConnector{}
	c := newTxnFixture(connector)

	uow, err := c.Begin(context.Background())
	require.NoError(t, err)

	c.End(context.Background(), uow)
	require.Len(t, connector.conns, 1)
	require.Len(t, connector.conns[0].txs, 1)
	assert.Equal(t, 1, connector.conns[0].txs[0].rollbacks)

	// End settles the unit of work; a late Commit does nothing.
	assert.NoError(t, c.Commit(context.Background(), uow))
	assert.Equal(t, 0, connector.conns[0].txs[0].commits)
}
