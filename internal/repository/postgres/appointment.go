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

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) MarkForRescheduling(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, reason string, markedBy uuid.UUID, at time.Time) (int64, error) {
	if len(clinicIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE appointments
		SET rescheduling_reason = $1,
			marked_for_rescheduling_at = $2,
			marked_by = $3,
			updated_at = $2
		WHERE clinic_id = ANY($4)
		  AND status IN ($5, $6)
		  AND deleted_at IS NULL
	`
	result, err := r.ext(uow).ExecContext(ctx, query,
		reason,
		at,
		markedBy,
		pq.Array(clinicIDs),
		model.AppointmentStatusScheduled,
		model.AppointmentStatusConfirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark appointments for rescheduling: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *appointmentRepository) CountDistinctPatientsByClinic(ctx context.Context, clinicIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	if len(clinicIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT clinic_id, COUNT(DISTINCT patient_id)
		FROM appointments
		WHERE clinic_id = ANY($1) AND deleted_at IS NULL
		GROUP BY clinic_id
	`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(clinicIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			clinicID uuid.UUID
			count    int
		)
		if err := rows.Scan(&clinicID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan patient counts: %w", err)
		}
		counts[clinicID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patient counts: %w", err)
	}

	return counts, nil
}
