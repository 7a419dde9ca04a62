package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
	"github.com/caremesh/complex-api/internal/service/capacity"
	apperrors "github.com/caremesh/complex-api/pkg/errors"
	"github.com/caremesh/complex-api/pkg/logger"
	"github.com/caremesh/complex-api/pkg/metrics"
)

// ReschedulingReason is stamped on appointments when a transfer produced
// working-hours conflicts.
const ReschedulingReason = "Clinic transferred to a new complex with different working hours"

// Engine moves clinics between complexes, keeping staff assignments in
// lock-step and flagging appointments when the new complex's working hours
// do not cover the clinics' schedules.
type Engine interface {
	Transfer(ctx context.Context, uow repository.UnitOfWork, req *model.TransferRequest) (*model.TransferResult, error)
	Run(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error)
	DetectConflicts(ctx context.Context, sourceComplexID, targetComplexID uuid.UUID, clinics []*model.Clinic) []*model.Conflict
}

type Service struct {
	txn             repository.TxnCoordinator
	complexRepo     repository.ComplexRepository
	clinicRepo      repository.ClinicRepository
	staffRepo       repository.StaffRepository
	appointmentRepo repository.AppointmentRepository
	hoursRepo       repository.WorkingHoursRepository
	outboxRepo      repository.OutboxRepository
	capacity        capacity.Aggregator
	logger          *logger.Logger
	metrics         *metrics.Metrics
}

func NewService(
	txn repository.TxnCoordinator,
	complexRepo repository.ComplexRepository,
	clinicRepo repository.ClinicRepository,
	staffRepo repository.StaffRepository,
	appointmentRepo repository.AppointmentRepository,
	hoursRepo repository.WorkingHoursRepository,
	outboxRepo repository.OutboxRepository,
	capacitySvc capacity.Aggregator,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		txn:             txn,
		complexRepo:     complexRepo,
		clinicRepo:      clinicRepo,
		staffRepo:       staffRepo,
		appointmentRepo: appointmentRepo,
		hoursRepo:       hoursRepo,
		outboxRepo:      outboxRepo,
		capacity:        capacitySvc,
		logger:          log,
		metrics:         m,
	}
}

// Run executes a standalone transfer inside its own unit of work.
func (s *Service) Run(ctx context.Context, req *model.TransferRequest) (*model.TransferResult, error) {
	uow, err := s.txn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer s.txn.End(ctx, uow)

	result, err := s.Transfer(ctx, uow, req)
	if err != nil {
		_ = s.txn.Abort(ctx, uow)
		return nil, err
	}

	if err := s.recordEvent(ctx, uow, req, result); err != nil {
		_ = s.txn.Abort(ctx, uow)
		return nil, err
	}

	if err := s.txn.Commit(ctx, uow); err != nil {
		return nil, err
	}

	if s.capacity != nil {
		s.capacity.Invalidate(req.SourceComplexID)
		s.capacity.Invalidate(req.TargetComplexID)
	}

	return result, nil
}

// Transfer validates the whole batch before any write. A single clinic that
// does not belong to the source rejects the entire request; partial
// transfers are not permitted. All writes go through the supplied unit of
// work so a cascade can abort them together.
func (s *Service) Transfer(ctx context.Context, uow repository.UnitOfWork, req *model.TransferRequest) (*model.TransferResult, error) {
	source, err := s.complexRepo.Get(ctx, req.SourceComplexID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeComplexNotFound, "source complex not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source complex: %w", err)
	}

	target, err := s.complexRepo.Get(ctx, req.TargetComplexID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeTargetComplexNotFound, "target complex not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load target complex: %w", err)
	}
	if !target.IsActive() {
		return nil, apperrors.Precondition(apperrors.CodeTargetComplexInactive, "target complex is not active")
	}

	clinics, err := s.clinicRepo.GetMany(ctx, req.ClinicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinics: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Clinic, len(clinics))
	for _, c := range clinics {
		byID[c.ID] = c
	}
	for _, id := range req.ClinicIDs {
		clinic, ok := byID[id]
		if !ok || clinic.ComplexID != req.SourceComplexID {
			return nil, apperrors.Precondition(apperrors.CodeClinicNotInSource,
				fmt.Sprintf("clinic %s does not belong to the source complex", id))
		}
	}

	result := &model.TransferResult{Conflicts: make([]*model.Conflict, 0)}

	result.ClinicsTransferred, err = s.clinicRepo.ReassignComplex(ctx, uow, req.ClinicIDs, req.TargetComplexID)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer clinics: %w", err)
	}

	result.StaffUpdated, err = s.staffRepo.ReassignComplex(ctx, uow, req.ClinicIDs, req.TargetComplexID)
	if err != nil {
		return nil, fmt.Errorf("failed to reassign staff: %w", err)
	}

	result.Conflicts = s.DetectConflicts(ctx, req.SourceComplexID, req.TargetComplexID, clinics)

	if len(result.Conflicts) > 0 {
		markedBy := source.OwnerID
		if req.ActorID != nil {
			markedBy = *req.ActorID
		}
		result.AppointmentsMarkedForRescheduling, err = s.appointmentRepo.MarkForRescheduling(
			ctx, uow, req.ClinicIDs, ReschedulingReason, markedBy, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to mark appointments for rescheduling: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ClinicsTransferred.Add(float64(result.ClinicsTransferred))
		s.metrics.ConflictsDetected.Add(float64(len(result.Conflicts)))
		s.metrics.AppointmentsMarked.Add(float64(result.AppointmentsMarkedForRescheduling))
	}

	s.logger.Info("clinic transfer completed",
		"source_complex_id", req.SourceComplexID.String(),
		"target_complex_id", req.TargetComplexID.String(),
		"clinics", result.ClinicsTransferred,
		"staff", result.StaffUpdated,
		"conflicts", len(result.Conflicts),
		"appointments_marked", result.AppointmentsMarkedForRescheduling,
	)

	return result, nil
}

func (s *Service) recordEvent(ctx context.Context, uow repository.UnitOfWork, req *model.TransferRequest, result *model.TransferResult) error {
	payload, err := json.Marshal(map[string]interface{}{
		"source_complex_id":   req.SourceComplexID,
		"target_complex_id":   req.TargetComplexID,
		"clinic_ids":          req.ClinicIDs,
		"clinics_transferred": result.ClinicsTransferred,
		"staff_updated":       result.StaffUpdated,
		"conflicts":           result.Conflicts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transfer event: %w", err)
	}
	if err := s.outboxRepo.Create(ctx, uow, &model.OutboxEvent{
		EventType: model.EventClinicsTransferred,
		Payload:   payload,
	}); err != nil {
		return fmt.Errorf("failed to record transfer event: %w", err)
	}
	return nil
}
