package complex

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
	"github.com/caremesh/complex-api/internal/service/catalog"
	"github.com/caremesh/complex-api/internal/service/transfer"
	apperrors "github.com/caremesh/complex-api/pkg/errors"
	"github.com/caremesh/complex-api/pkg/logger"
	"github.com/caremesh/complex-api/pkg/metrics"
)

// ComplexServicer orchestrates complex status changes and their cascades.
type ComplexServicer interface {
	ChangeStatus(ctx context.Context, complexID uuid.UUID, req *model.StatusChangeRequest) (*model.StatusChangeResult, error)
}

type Service struct {
	txn         repository.TxnCoordinator
	complexRepo repository.ComplexRepository
	clinicRepo  repository.ClinicRepository
	deactivator catalog.Deactivator
	engine      transfer.Engine
	capacity    capacity.Aggregator
	outboxRepo  repository.OutboxRepository
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(
	txn repository.TxnCoordinator,
	complexRepo repository.ComplexRepository,
	clinicRepo repository.ClinicRepository,
	deactivator catalog.Deactivator,
	engine transfer.Engine,
	capacitySvc capacity.Aggregator,
	outboxRepo repository.OutboxRepository,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		txn:         txn,
		complexRepo: complexRepo,
		clinicRepo:  clinicRepo,
		deactivator: deactivator,
		engine:      engine,
		capacity:    capacitySvc,
		outboxRepo:  outboxRepo,
		logger:      log,
		metrics:     m,
	}
}

// ChangeStatus runs the status-change state machine inside one unit of work.
// Transitions: active -> {inactive, suspended}, {inactive, suspended} ->
// active, inactive <-> suspended; every transition is re-enterable. Any step
// failure aborts the unit of work before the error propagates.
func (s *Service) ChangeStatus(ctx context.Context, complexID uuid.UUID, req *model.StatusChangeRequest) (*model.StatusChangeResult, error) {
	if !model.ValidComplexStatus(req.Status) {
		return nil, apperrors.Validation(apperrors.CodeInvalidStatus,
			fmt.Sprintf("unknown status %q", req.Status), nil)
	}

	uow, err := s.txn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer s.txn.End(ctx, uow)

	result, err := s.changeStatus(ctx, uow, complexID, req)
	if err != nil {
		_ = s.txn.Abort(ctx, uow)
		return nil, err
	}

	if err := s.txn.Commit(ctx, uow); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, req, result)
	return result, nil
}

func (s *Service) changeStatus(ctx context.Context, uow repository.UnitOfWork, complexID uuid.UUID, req *model.StatusChangeRequest) (*model.StatusChangeResult, error) {
	cx, err := s.complexRepo.Get(ctx, complexID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeComplexNotFound, "complex not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load complex: %w", err)
	}

	if req.Status == model.ComplexStatusActive {
		return s.reactivate(ctx, uow, cx)
	}
	return s.deactivate(ctx, uow, cx, req)
}

// deactivate handles transitions into inactive or suspended.
func (s *Service) deactivate(ctx context.Context, uow repository.UnitOfWork, cx *model.Complex, req *model.StatusChangeRequest) (*model.StatusChangeResult, error) {
	clinics, err := s.clinicRepo.ListActiveByComplex(ctx, cx.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}

	// Precondition gate: active clinics cannot be stranded without a home.
	// Checked before any write so a rejected request has no side effects.
	if len(clinics) > 0 && req.TargetComplexID == nil {
		return nil, apperrors.Precondition(apperrors.CodeTransferRequired,
			"complex has active clinics; a target complex is required")
	}

	result := &model.StatusChangeResult{}

	result.ServicesDeactivated, err = s.deactivator.DeactivateAll(ctx, uow, cx.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate services: %w", err)
	}

	if req.TargetComplexID != nil {
		target, err := s.complexRepo.Get(ctx, *req.TargetComplexID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeTargetComplexNotFound, "target complex not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load target complex: %w", err)
		}
		if !target.IsActive() {
			return nil, apperrors.Precondition(apperrors.CodeTargetComplexInactive, "target complex is not active")
		}

		if req.TransferClinics && len(clinics) > 0 {
			clinicIDs := make([]uuid.UUID, 0, len(clinics))
			for _, c := range clinics {
				clinicIDs = append(clinicIDs, c.ID)
			}
			transferResult, err := s.engine.Transfer(ctx, uow, &model.TransferRequest{
				SourceComplexID: cx.ID,
				TargetComplexID: *req.TargetComplexID,
				ClinicIDs:       clinicIDs,
				ActorID:         req.ActorID,
			})
			if err != nil {
				return nil, err
			}
			result.ClinicsTransferred = transferResult.ClinicsTransferred
			result.StaffUpdated = transferResult.StaffUpdated
			result.AppointmentsMarkedForRescheduling = transferResult.AppointmentsMarkedForRescheduling
			result.Conflicts = transferResult.Conflicts
		}
	}

	now := time.Now()
	actor := s.actorOrOwner(cx, req.ActorID)
	cx.Status = req.Status
	cx.DeactivatedAt = &now
	cx.DeactivatedBy = &actor
	cx.DeactivationReason = req.DeactivationReason

	if err := s.complexRepo.Update(ctx, uow, cx); err != nil {
		return nil, fmt.Errorf("failed to update complex: %w", err)
	}

	if err := s.recordEvent(ctx, uow, cx, result); err != nil {
		return nil, err
	}

	result.Complex = cx
	return result, nil
}

// reactivate clears deactivation metadata and restores active status. No
// cascade runs: services and clinics are left as the deactivation put them.
func (s *Service) reactivate(ctx context.Context, uow repository.UnitOfWork, cx *model.Complex) (*model.StatusChangeResult, error) {
	cx.Status = model.ComplexStatusActive
	cx.DeactivatedAt = nil
	cx.DeactivatedBy = nil
	cx.DeactivationReason = nil

	if err := s.complexRepo.Update(ctx, uow, cx); err != nil {
		return nil, fmt.Errorf("failed to update complex: %w", err)
	}

	result := &model.StatusChangeResult{Complex: cx}
	if err := s.recordEvent(ctx, uow, cx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) actorOrOwner(cx *model.Complex, actorID *uuid.UUID) uuid.UUID {
	if actorID != nil {
		return *actorID
	}
	return cx.OwnerID
}

func (s *Service) recordEvent(ctx context.Context, uow repository.UnitOfWork, cx *model.Complex, result *model.StatusChangeResult) error {
	payload, err := json.Marshal(map[string]interface{}{
		"complex_id":           cx.ID,
		"status":               cx.Status,
		"services_deactivated": result.ServicesDeactivated,
		"clinics_transferred":  result.ClinicsTransferred,
		"conflicts":            result.Conflicts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}
	if err := s.outboxRepo.Create(ctx, uow, &model.OutboxEvent{
		EventType: model.EventComplexStatusChanged,
		Payload:   payload,
	}); err != nil {
		return fmt.Errorf("failed to record status event: %w", err)
	}
	return nil
}

// afterCommit attaches the post-cascade capacity picture and refreshes
// derived state. Failures here never fail the request.
func (s *Service) afterCommit(ctx context.Context, req *model.StatusChangeRequest, result *model.StatusChangeResult) {
	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(string(req.Status)).Inc()
		s.metrics.ServicesDeactivated.Add(float64(result.ServicesDeactivated))
	}

	if s.capacity == nil {
		return
	}
	s.capacity.Invalidate(result.Complex.ID)
	if req.TargetComplexID != nil {
		s.capacity.Invalidate(*req.TargetComplexID)
		breakdown, err := s.capacity.Compute(ctx, *req.TargetComplexID)
		if err != nil {
			s.logger.Error(err, "failed to compute target capacity",
				"complex_id", req.TargetComplexID.String())
			return
		}
		result.Capacity = breakdown
	}
}
