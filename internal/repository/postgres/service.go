package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/caremesh/complex-api/internal/repository"
)

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(base BaseRepository) repository.ServiceRepository {
	return &serviceRepository{base}
}

func (r *serviceRepository) DeactivateByScope(ctx context.Context, uow repository.UnitOfWork, clinicIDs, departmentIDs []uuid.UUID) (int64, error) {
	if len(clinicIDs) == 0 && len(departmentIDs) == 0 {
		return 0, nil
	}

	// The is_active filter keeps the call idempotent: rows already off are
	// not counted on a second invocation.
	query := `
		UPDATE services
		SET is_active = FALSE, updated_at = $1
		WHERE is_active = TRUE
		  AND deleted_at IS NULL
		  AND (clinic_id = ANY($2) OR complex_department_id = ANY($3))
	`
	result, err := r.ext(uow).ExecContext(ctx, query, time.Now(), pq.Array(clinicIDs), pq.Array(departmentIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate services: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
