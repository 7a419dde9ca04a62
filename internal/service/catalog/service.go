package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/repository"
)

// Deactivator bulk-deactivates every service reachable from a complex,
// through either a clinic or a department of that complex.
type Deactivator interface {
	DeactivateAll(ctx context.Context, uow repository.UnitOfWork, complexID uuid.UUID) (int64, error)
}

type Service struct {
	clinicRepo  repository.ClinicRepository
	complexRepo repository.ComplexRepository
	serviceRepo repository.ServiceRepository
}

func NewService(clinicRepo repository.ClinicRepository, complexRepo repository.ComplexRepository, serviceRepo repository.ServiceRepository) *Service {
	return &Service{
		clinicRepo:  clinicRepo,
		complexRepo: complexRepo,
		serviceRepo: serviceRepo,
	}
}

// DeactivateAll returns the number of services touched in this call.
// Idempotent: already-inactive services are skipped and not counted.
func (s *Service) DeactivateAll(ctx context.Context, uow repository.UnitOfWork, complexID uuid.UUID) (int64, error) {
	clinicIDs, err := s.clinicRepo.ListIDsByComplex(ctx, complexID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve clinics: %w", err)
	}

	departmentIDs, err := s.complexRepo.ListDepartmentIDs(ctx, complexID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve departments: %w", err)
	}

	count, err := s.serviceRepo.DeactivateByScope(ctx, uow, clinicIDs, departmentIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate services: %w", err)
	}
	return count, nil
}
