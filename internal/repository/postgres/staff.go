package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

func (r *staffRepository) ReassignComplex(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error) {
	if len(clinicIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE staff_assignments
		SET complex_id = $1, updated_at = $2
		WHERE clinic_id = ANY($3)
		  AND is_active = TRUE
		  AND deleted_at IS NULL
	`
	result, err := r.ext(uow).ExecContext(ctx, query, targetComplexID, time.Now(), pq.Array(clinicIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign staff: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *staffRepository) CountByClinic(ctx context.Context, clinicIDs []uuid.UUID) (map[uuid.UUID]int, map[uuid.UUID]int, error) {
	doctors := make(map[uuid.UUID]int)
	staff := make(map[uuid.UUID]int)
	if len(clinicIDs) == 0 {
		return doctors, staff, nil
	}

	query := `
		SELECT
			clinic_id,
			COUNT(*) FILTER (WHERE role = $1) AS doctors,
			COUNT(*) FILTER (WHERE role NOT IN ($1, $2)) AS staff
		FROM staff_assignments
		WHERE clinic_id = ANY($3)
		  AND is_active = TRUE
		  AND deleted_at IS NULL
		GROUP BY clinic_id
	`
	rows, err := r.db.QueryxContext(ctx, query, model.StaffRoleDoctor, model.StaffRolePatient, pq.Array(clinicIDs))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count staff: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			clinicID    uuid.UUID
			doctorCount int
			staffCount  int
		)
		if err := rows.Scan(&clinicID, &doctorCount, &staffCount); err != nil {
			return nil, nil, fmt.Errorf("failed to scan staff counts: %w", err)
		}
		doctors[clinicID] = doctorCount
		staff[clinicID] = staffCount
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate staff counts: %w", err)
	}

	return doctors, staff, nil
}
