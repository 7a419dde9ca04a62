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

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Clinic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT
			id, complex_id, name, is_active,
			max_doctors, max_staff, max_patients,
			created_at, updated_at, deleted_at
		FROM clinics
		WHERE id = ANY($1) AND deleted_at IS NULL
	`
	var clinics []*model.Clinic
	err := r.db.SelectContext(ctx, &clinics, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) ListActiveByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.Clinic, error) {
	query := `
		SELECT
			id, complex_id, name, is_active,
			max_doctors, max_staff, max_patients,
			created_at, updated_at, deleted_at
		FROM clinics
		WHERE complex_id = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
	`
	var clinics []*model.Clinic
	err := r.db.SelectContext(ctx, &clinics, query, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) ListIDsByComplex(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM clinics
		WHERE complex_id = $1 AND deleted_at IS NULL
	`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinic ids: %w", err)
	}
	return ids, nil
}

func (r *clinicRepository) ReassignComplex(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error) {
	if len(clinicIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE clinics
		SET complex_id = $1, updated_at = $2
		WHERE id = ANY($3) AND deleted_at IS NULL
	`
	result, err := r.ext(uow).ExecContext(ctx, query, targetComplexID, time.Now(), pq.Array(clinicIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign clinics: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
