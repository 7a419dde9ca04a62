package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/caremesh/complex-api/internal/repository"
	"github.com/caremesh/complex-api/pkg/logger"
	"github.com/caremesh/complex-api/pkg/metrics"
)

// unitOfWork carries the write scope of one request. When tx is nil the unit
// of work is pass-through: statements run directly against the pool and
// Commit/Abort do nothing.
type unitOfWork struct {
	tx   *sqlx.Tx
	done bool
}

func (u *unitOfWork) Transactional() bool {
	return u.tx != nil
}

// TxnCoordinator probes the store's transaction capability once and caches
// the answer for its lifetime. When the store cannot provide transactions it
// degrades to pass-through units of work rather than failing callers.
type TxnCoordinator struct {
	db         *sqlx.DB
	logger     *logger.Logger
	metrics    *metrics.Metrics
	capability atomic.Int32
}

func NewTxnCoordinator(db *sqlx.DB, log *logger.Logger, m *metrics.Metrics) *TxnCoordinator {
	return &TxnCoordinator{db: db, logger: log, metrics: m}
}

func (c *TxnCoordinator) Capability() repository.TxnCapability {
	return repository.TxnCapability(c.capability.Load())
}

func (c *TxnCoordinator) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	switch c.Capability() {
	case repository.TxnCapabilitySupported:
		tx, err := c.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		return &unitOfWork{tx: tx}, nil
	case repository.TxnCapabilityUnsupported:
		return &unitOfWork{}, nil
	}
	return c.probe(ctx)
}

// probe opens a real transaction and issues a no-op statement through it.
// On success the transaction is kept as the caller's active unit of work.
// Any probe failure downgrades the coordinator for its remaining lifetime;
// the first-caller-wins race costs at most one extra probe.
func (c *TxnCoordinator) probe(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		c.degrade(err)
		return &unitOfWork{}, nil
	}

	if _, err := tx.ExecContext(ctx, "SELECT 1"); err != nil {
		_ = tx.Rollback()
		c.degrade(err)
		return &unitOfWork{}, nil
	}

	c.capability.Store(int32(repository.TxnCapabilitySupported))
	if c.metrics != nil {
		c.metrics.DegradedMode.Set(0)
	}
	return &unitOfWork{tx: tx}, nil
}

func (c *TxnCoordinator) degrade(err error) {
	c.capability.Store(int32(repository.TxnCapabilityUnsupported))
	if c.metrics != nil {
		c.metrics.DegradedMode.Set(1)
	}
	c.logger.Warn("transactions unavailable, degrading to non-atomic writes", "error", err.Error())
}

func (c *TxnCoordinator) Commit(ctx context.Context, uow repository.UnitOfWork) error {
	u, ok := uow.(*unitOfWork)
	if !ok || u.tx == nil || u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *TxnCoordinator) Abort(ctx context.Context, uow repository.UnitOfWork) error {
	u, ok := uow.(*unitOfWork)
	if !ok || u.tx == nil || u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func (c *TxnCoordinator) End(ctx context.Context, uow repository.UnitOfWork) {
	u, ok := uow.(*unitOfWork)
	if !ok || u.tx == nil || u.done {
		return
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil {
		c.logger.Error(err, "failed to release unit of work")
	}
}
