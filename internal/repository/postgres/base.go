package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/caremesh/complex-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// ext resolves the executor for a write: the unit of work's transaction when
// one is active, the pool otherwise. A nil or non-transactional unit of work
// falls through to the pool.
func (r *BaseRepository) ext(uow repository.UnitOfWork) sqlx.ExtContext {
	if u, ok := uow.(*unitOfWork); ok && u != nil && u.tx != nil {
		return u.tx
	}
	return r.db
}
