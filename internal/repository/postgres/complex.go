package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
)

type complexRepository struct {
	BaseRepository
}

func NewComplexRepository(base BaseRepository) repository.ComplexRepository {
	return &complexRepository{base}
}

func (r *complexRepository) Get(ctx context.Context, id uuid.UUID) (*model.Complex, error) {
	query := `
		SELECT
			id, name, owner_id, person_in_charge_id, status,
			deactivated_at, deactivated_by, deactivation_reason,
			created_at, updated_at, deleted_at
		FROM complexes
		WHERE id = $1 AND deleted_at IS NULL
	`
	var cx model.Complex
	err := r.db.GetContext(ctx, &cx, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complex: %w", err)
	}
	return &cx, nil
}

func (r *complexRepository) Update(ctx context.Context, uow repository.UnitOfWork, cx *model.Complex) error {
	query := `
		UPDATE complexes
		SET status = $1,
			deactivated_at = $2,
			deactivated_by = $3,
			deactivation_reason = $4,
			updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	cx.UpdatedAt = time.Now()

	result, err := r.ext(uow).ExecContext(ctx, query,
		cx.Status,
		cx.DeactivatedAt,
		cx.DeactivatedBy,
		cx.DeactivationReason,
		cx.UpdatedAt,
		cx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update complex: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *complexRepository) ListDepartmentIDs(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM complex_departments
		WHERE complex_id = $1 AND deleted_at IS NULL
	`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complex departments: %w", err)
	}
	return ids, nil
}
