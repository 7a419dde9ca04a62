package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/model"
)

// ErrNotFound is returned by lookups that match no row. Services branch on
// it to tell a missing record from a failing store.
var ErrNotFound = errors.New("record not found")

// TxnCapability is the cached answer to "does the backing store support
// multi-statement transactions". Probed once per coordinator lifetime.
type TxnCapability int32

const (
	TxnCapabilityUnknown TxnCapability = iota
	TxnCapabilitySupported
	TxnCapabilityUnsupported
)

// UnitOfWork is the atomic write scope for one cascade. Implementations are
// either transaction-backed or pass-through; write methods on the
// repositories accept one and route their statements accordingly. A nil
// UnitOfWork is valid and means "execute directly".
type UnitOfWork interface {
	// Transactional reports whether writes through this unit of work can be
	// rolled back.
	Transactional() bool
}

// TxnCoordinator hands out units of work. Commit and Abort are no-ops for
// non-transactional units.
type TxnCoordinator interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Commit(ctx context.Context, uow UnitOfWork) error
	Abort(ctx context.Context, uow UnitOfWork) error
	// End releases any resources still held by the unit of work. Safe to
	// defer; a no-op after Commit or Abort.
	End(ctx context.Context, uow UnitOfWork)
	Capability() TxnCapability
}

// All repository interfaces in one file
type (
	ComplexRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Complex, error)
		Update(ctx context.Context, uow UnitOfWork, complex *model.Complex) error
		ListDepartmentIDs(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error)
	}

	ClinicRepository interface {
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Clinic, error)
		// ListActiveByComplex returns active, non-deleted clinics.
		ListActiveByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.Clinic, error)
		// ListIDsByComplex returns IDs of all non-deleted clinics regardless
		// of active state.
		ListIDsByComplex(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error)
		ReassignComplex(ctx context.Context, uow UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error)
	}

	ServiceRepository interface {
		// DeactivateByScope clears is_active on every active service linked
		// to one of the clinics or complex departments. Returns rows touched.
		DeactivateByScope(ctx context.Context, uow UnitOfWork, clinicIDs, departmentIDs []uuid.UUID) (int64, error)
	}

	StaffRepository interface {
		// ReassignComplex moves active staff assigned to the given clinics to
		// the target complex. Returns rows touched.
		ReassignComplex(ctx context.Context, uow UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error)
		// CountByClinic returns live doctor and non-doctor staff counts per
		// clinic, excluding patients and inactive assignments.
		CountByClinic(ctx context.Context, clinicIDs []uuid.UUID) (doctors, staff map[uuid.UUID]int, err error)
	}

	AppointmentRepository interface {
		// MarkForRescheduling flags scheduled/confirmed, non-deleted
		// appointments on the given clinics. Returns rows touched.
		MarkForRescheduling(ctx context.Context, uow UnitOfWork, clinicIDs []uuid.UUID, reason string, markedBy uuid.UUID, at time.Time) (int64, error)
		// CountDistinctPatientsByClinic counts distinct patients holding any
		// non-deleted appointment per clinic.
		CountDistinctPatientsByClinic(ctx context.Context, clinicIDs []uuid.UUID) (map[uuid.UUID]int, error)
	}

	WorkingHoursRepository interface {
		ListByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.WorkingHoursEntry, error)
		ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.WorkingHoursEntry, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, uow UnitOfWork, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)
