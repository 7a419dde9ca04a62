package capacity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
	overCapacity = 100
)

// Aggregator computes capacity limits vs. live utilization for a complex.
type Aggregator interface {
	Compute(ctx context.Context, complexID uuid.UUID) (*model.CapacityBreakdown, error)
	Invalidate(complexID uuid.UUID)
}

type Service struct {
	clinicRepo      repository.ClinicRepository
	staffRepo       repository.StaffRepository
	appointmentRepo repository.AppointmentRepository
	cache           *gocache.Cache
}

func NewService(clinicRepo repository.ClinicRepository, staffRepo repository.StaffRepository, appointmentRepo repository.AppointmentRepository) *Service {
	return &Service{
		clinicRepo:      clinicRepo,
		staffRepo:       staffRepo,
		appointmentRepo: appointmentRepo,
		cache:           gocache.New(cacheTTL, cacheCleanup),
	}
}

// Compute is a pure read and is safe to call outside any unit of work.
// Results are cached briefly; Invalidate drops the entry after a cascade.
func (s *Service) Compute(ctx context.Context, complexID uuid.UUID) (*model.CapacityBreakdown, error) {
	if cached, ok := s.cache.Get(complexID.String()); ok {
		// Hand out a copy so callers cannot mutate the cached entry.
		return cloneBreakdown(cached.(*model.CapacityBreakdown)), nil
	}

	clinics, err := s.clinicRepo.ListActiveByComplex(ctx, complexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}

	clinicIDs := make([]uuid.UUID, 0, len(clinics))
	for _, c := range clinics {
		clinicIDs = append(clinicIDs, c.ID)
	}

	doctors, staff, err := s.staffRepo.CountByClinic(ctx, clinicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count staff: %w", err)
	}

	patients, err := s.appointmentRepo.CountDistinctPatientsByClinic(ctx, clinicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	breakdown := &model.CapacityBreakdown{
		ComplexID: complexID,
		ByClinic:  make([]*model.ClinicCapacity, 0, len(clinics)),
	}

	for _, c := range clinics {
		current := model.CapacityCurrent{
			Doctors:  doctors[c.ID],
			Staff:    staff[c.ID],
			Patients: patients[c.ID],
		}
		totals := model.CapacityTotals{
			MaxDoctors:  c.MaxDoctors,
			MaxStaff:    c.MaxStaff,
			MaxPatients: c.MaxPatients,
		}

		breakdown.ByClinic = append(breakdown.ByClinic, &model.ClinicCapacity{
			ClinicID:    c.ID,
			ClinicName:  c.Name,
			Totals:      totals,
			Current:     current,
			Utilization: utilizationOf(totals, current),
		})

		breakdown.Totals.MaxDoctors += totals.MaxDoctors
		breakdown.Totals.MaxStaff += totals.MaxStaff
		breakdown.Totals.MaxPatients += totals.MaxPatients
		breakdown.Current.Doctors += current.Doctors
		breakdown.Current.Staff += current.Staff
		breakdown.Current.Patients += current.Patients
	}

	breakdown.Utilization = utilizationOf(breakdown.Totals, breakdown.Current)
	breakdown.Recommendations = recommendationsFor(breakdown.Utilization)

	s.cache.Set(complexID.String(), breakdown, cacheTTL)
	return cloneBreakdown(breakdown), nil
}

func cloneBreakdown(b *model.CapacityBreakdown) *model.CapacityBreakdown {
	clone := *b
	clone.ByClinic = make([]*model.ClinicCapacity, len(b.ByClinic))
	for i, cc := range b.ByClinic {
		c := *cc
		clone.ByClinic[i] = &c
	}
	clone.Recommendations = append([]string(nil), b.Recommendations...)
	return &clone
}

func (s *Service) Invalidate(complexID uuid.UUID) {
	s.cache.Delete(complexID.String())
}

// utilizationOf is current/total as a whole percent, 0 when total is 0.
func utilizationOf(totals model.CapacityTotals, current model.CapacityCurrent) model.CapacityUtilization {
	return model.CapacityUtilization{
		Doctors:  percent(current.Doctors, totals.MaxDoctors),
		Staff:    percent(current.Staff, totals.MaxStaff),
		Patients: percent(current.Patients, totals.MaxPatients),
	}
}

func percent(current, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total) * 100))
}

func recommendationsFor(u model.CapacityUtilization) []string {
	var recs []string
	if u.Doctors > overCapacity {
		recs = append(recs, fmt.Sprintf("Doctor capacity exceeded (%d%%); raise clinic doctor limits or redistribute doctors", u.Doctors))
	}
	if u.Staff > overCapacity {
		recs = append(recs, fmt.Sprintf("Staff capacity exceeded (%d%%); raise clinic staff limits or redistribute staff", u.Staff))
	}
	if u.Patients > overCapacity {
		recs = append(recs, fmt.Sprintf("Patient capacity exceeded (%d%%); raise clinic patient limits or redistribute appointments", u.Patients))
	}
	return recs
}
