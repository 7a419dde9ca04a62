package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
)

type workingHoursRepository struct {
	BaseRepository
}

func NewWorkingHoursRepository(base BaseRepository) repository.WorkingHoursRepository {
	return &workingHoursRepository{base}
}

func (r *workingHoursRepository) ListByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.WorkingHoursEntry, error) {
	query := `
		SELECT
			id, complex_id, clinic_id, day_of_week, is_working_day,
			opening_time, closing_time, created_at, updated_at, deleted_at
		FROM working_hours
		WHERE complex_id = $1 AND deleted_at IS NULL
		ORDER BY day_of_week
	`
	var entries []*model.WorkingHoursEntry
	err := r.db.SelectContext(ctx, &entries, query, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complex working hours: %w", err)
	}
	return entries, nil
}

func (r *workingHoursRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.WorkingHoursEntry, error) {
	query := `
		SELECT
			id, complex_id, clinic_id, day_of_week, is_working_day,
			opening_time, closing_time, created_at, updated_at, deleted_at
		FROM working_hours
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY day_of_week
	`
	var entries []*model.WorkingHoursEntry
	err := r.db.SelectContext(ctx, &entries, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinic working hours: %w", err)
	}
	return entries, nil
}
