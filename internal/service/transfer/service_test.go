package transfer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/repository"
	apperrors "github.com/caremesh/complex-api/pkg/errors"
	"github.com/caremesh/complex-api/pkg/logger"
)

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Transactional() bool { return true }

type fakeTxn struct {
	beginErr  error
	commits   int
	aborts    int
	commitErr error
}

func (f *fakeTxn) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return fakeUnitOfWork{}, nil
}

func (f *fakeTxn) Commit(ctx context.Context, uow repository.UnitOfWork) error {
	f.commits++
	return f.commitErr
}

func (f *fakeTxn) Abort(ctx context.Context, uow repository.UnitOfWork) error {
	f.aborts++
	return nil
}

func (f *fakeTxn) End(ctx context.Context, uow repository.UnitOfWork) {}

func (f *fakeTxn) Capability() repository.TxnCapability {
	return repository.TxnCapabilitySupported
}

type fakeComplexRepo struct {
	complexes map[uuid.UUID]*model.Complex
	updated   []*model.Complex
	getErr    error
}

func (f *fakeComplexRepo) Get(ctx context.Context, id uuid.UUID) (*model.Complex, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.complexes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeComplexRepo) Update(ctx context.Context, uow repository.UnitOfWork, complex *model.Complex) error {
	f.updated = append(f.updated, complex)
	return nil
}

func (f *fakeComplexRepo) ListDepartmentIDs(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeClinicRepo struct {
	clinics     map[uuid.UUID]*model.Clinic
	reassigned  [][]uuid.UUID
	reassignErr error
}

func (f *fakeClinicRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Clinic, error) {
	var out []*model.Clinic
	for _, id := range ids {
		if c, ok := f.clinics[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClinicRepo) ListActiveByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.Clinic, error) {
	var out []*model.Clinic
	for _, c := range f.clinics {
		if c.ComplexID == complexID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClinicRepo) ListIDsByComplex(ctx context.Context, complexID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, c := range f.clinics {
		if c.ComplexID == complexID {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (f *fakeClinicRepo) ReassignComplex(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error) {
	if f.reassignErr != nil {
		return 0, f.reassignErr
	}
	f.reassigned = append(f.reassigned, clinicIDs)
	return int64(len(clinicIDs)), nil
}

type fakeStaffRepo struct {
	reassigned [][]uuid.UUID
	count      int64
}

func (f *fakeStaffRepo) ReassignComplex(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, targetComplexID uuid.UUID) (int64, error) {
	f.reassigned = append(f.reassigned, clinicIDs)
	return f.count, nil
}

func (f *fakeStaffRepo) CountByClinic(ctx context.Context, clinicIDs []uuid.UUID) (map[uuid.UUID]int, map[uuid.UUID]int, error) {
	return nil, nil, nil
}

type markCall struct {
	clinicIDs []uuid.UUID
	reason    string
	markedBy  uuid.UUID
}

type fakeAppointmentRepo struct {
	appointments []*model.Appointment
	marks        []markCall
}

func (f *fakeAppointmentRepo) MarkForRescheduling(ctx context.Context, uow repository.UnitOfWork, clinicIDs []uuid.UUID, reason string, markedBy uuid.UUID, at time.Time) (int64, error) {
	f.marks = append(f.marks, markCall{clinicIDs: clinicIDs, reason: reason, markedBy: markedBy})
	in := make(map[uuid.UUID]bool, len(clinicIDs))
	for _, id := range clinicIDs {
		in[id] = true
	}
	var marked int64
	for _, a := range f.appointments {
		if !in[a.ClinicID] || !a.EligibleForRescheduling() {
			continue
		}
		a.ReschedulingReason = &reason
		a.MarkedBy = &markedBy
		a.MarkedForReschedulingAt = &at
		marked++
	}
	return marked, nil
}

func (f *fakeAppointmentRepo) CountDistinctPatientsByClinic(ctx context.Context, clinicIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return nil, nil
}

type fakeHoursRepo struct {
	byComplex    map[uuid.UUID][]*model.WorkingHoursEntry
	byClinic     map[uuid.UUID][]*model.WorkingHoursEntry
	complexErr   map[uuid.UUID]error
	clinicErrAll error
}

func (f *fakeHoursRepo) ListByComplex(ctx context.Context, complexID uuid.UUID) ([]*model.WorkingHoursEntry, error) {
	if err := f.complexErr[complexID]; err != nil {
		return nil, err
	}
	return f.byComplex[complexID], nil
}

func (f *fakeHoursRepo) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.WorkingHoursEntry, error) {
	if f.clinicErrAll != nil {
		return nil, f.clinicErrAll
	}
	return f.byClinic[clinicID], nil
}

type fakeOutboxRepo struct {
	events    []*model.OutboxEvent
	createErr error
}

func (f *fakeOutboxRepo) Create(ctx context.Context, uow repository.UnitOfWork, event *model.OutboxEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func newComplex(status model.ComplexStatus) *model.Complex {
	c := &model.Complex{
		Name:    "complex",
		OwnerID: uuid.New(),
		Status:  status,
	}
	c.ID = uuid.New()
	return c
}

func newClinic(complexID uuid.UUID, name string) *model.Clinic {
	c := &model.Clinic{
		ComplexID: complexID,
		Name:      name,
		IsActive:  true,
	}
	c.ID = uuid.New()
	return c
}

func newAppointment(clinicID uuid.UUID, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		ClinicID:  clinicID,
		PatientID: uuid.New(),
		Status:    status,
	}
	a.ID = uuid.New()
	return a
}

type transferFixture struct {
	txn         *fakeTxn
	complexes   *fakeComplexRepo
	clinics     *fakeClinicRepo
	staff       *fakeStaffRepo
	appointment *fakeAppointmentRepo
	hours       *fakeHoursRepo
	outbox      *fakeOutboxRepo
	svc         *Service
}

func newTransferFixture() *transferFixture {
	f := &transferFixture{
		txn:         &fakeTxn{},
		complexes:   &fakeComplexRepo{complexes: map[uuid.UUID]*model.Complex{}},
		clinics:     &fakeClinicRepo{clinics: map[uuid.UUID]*model.Clinic{}},
		staff:       &fakeStaffRepo{count: 3},
		appointment: &fakeAppointmentRepo{},
		hours: &fakeHoursRepo{
			byComplex:  map[uuid.UUID][]*model.WorkingHoursEntry{},
			byClinic:   map[uuid.UUID][]*model.WorkingHoursEntry{},
			complexErr: map[uuid.UUID]error{},
		},
		outbox: &fakeOutboxRepo{},
	}
	f.svc = NewService(f.txn, f.complexes, f.clinics, f.staff, f.appointment, f.hours, f.outbox, nil, testLogger(), nil)
	return f
}

func (f *transferFixture) addComplex(c *model.Complex) { f.complexes.complexes[c.ID] = c }
func (f *transferFixture) addClinic(c *model.Clinic)   { f.clinics.clinics[c.ID] = c }

func hoursEntry(day int, open, close string) *model.WorkingHoursEntry {
	e := &model.WorkingHoursEntry{
		DayOfWeek:    day,
		IsWorkingDay: true,
		OpeningTime:  open,
		ClosingTime:  close,
	}
	e.ID = uuid.New()
	return e
}

func TestTransferMovesClinicsAndStaff(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	c1 := newClinic(source.ID, "Dermatology")
	c2 := newClinic(source.ID, "Dental")
	f.addClinic(c1)
	f.addClinic(c2)

	// Target covers any schedule, so no conflicts and no marking.
	result, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{c1.ID, c2.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.ClinicsTransferred)
	assert.Equal(t, int64(3), result.StaffUpdated)
	assert.Equal(t, int64(0), result.AppointmentsMarkedForRescheduling)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, f.appointment.marks)
	require.Len(t, f.clinics.reassigned, 1)
	require.Len(t, f.staff.reassigned, 1)
	assert.Equal(t, f.clinics.reassigned[0], f.staff.reassigned[0])
}

func TestTransferRejectsBatchWhenClinicNotInSource(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	other := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)
	f.addComplex(other)

	ours := newClinic(source.ID, "Dermatology")
	foreign := newClinic(other.ID, "Dental")
	f.addClinic(ours)
	f.addClinic(foreign)

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{ours.ID, foreign.ID},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeClinicNotInSource, appErr.Code)
	assert.Equal(t, apperrors.KindPrecondition, appErr.Kind)

	// Validation happens before any write.
	assert.Empty(t, f.clinics.reassigned)
	assert.Empty(t, f.staff.reassigned)
	assert.Empty(t, f.appointment.marks)
}

func TestTransferRejectsUnknownClinicID(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeClinicNotInSource, appErr.Code)
}

func TestTransferRequiresActiveTarget(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusSuspended)
	f.addComplex(source)
	f.addComplex(target)

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTargetComplexInactive, appErr.Code)
}

func TestTransferReportsMissingComplexes(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	f.addComplex(source)

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: uuid.New(),
		TargetComplexID: source.ID,
		ClinicIDs:       []uuid.UUID{uuid.New()},
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeComplexNotFound, appErr.Code)

	_, err = f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: uuid.New(),
		ClinicIDs:       []uuid.UUID{uuid.New()},
	})
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTargetComplexNotFound, appErr.Code)
}

func TestTransferRepositoryFailureIsNotNotFound(t *testing.T) {
	f := newTransferFixture()
	f.complexes.getErr = errors.New("connection refused")

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: uuid.New(),
		TargetComplexID: uuid.New(),
		ClinicIDs:       []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)

	// A failing store is an internal error, never a 404.
	_, ok := apperrors.AsAppError(err)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, f.clinics.reassigned)
}

func TestTransferMarksAppointmentsOnlyWhenConflicting(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	clinic := newClinic(source.ID, "Dermatology")
	f.addClinic(clinic)

	// Clinic works Monday 08:00-20:00; target opens later and closes earlier.
	f.hours.byComplex[source.ID] = []*model.WorkingHoursEntry{hoursEntry(1, "08:00", "20:00")}
	f.hours.byComplex[target.ID] = []*model.WorkingHoursEntry{hoursEntry(1, "09:00", "17:00")}

	// Only upcoming appointments of the conflicting clinic get marked.
	upcoming := newAppointment(clinic.ID, model.AppointmentStatusScheduled)
	confirmed := newAppointment(clinic.ID, model.AppointmentStatusConfirmed)
	completed := newAppointment(clinic.ID, model.AppointmentStatusCompleted)
	elsewhere := newAppointment(uuid.New(), model.AppointmentStatusScheduled)
	f.appointment.appointments = []*model.Appointment{upcoming, confirmed, completed, elsewhere}

	actor := uuid.New()
	result, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{clinic.ID},
		ActorID:         &actor,
	})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, int64(2), result.AppointmentsMarkedForRescheduling)
	require.Len(t, f.appointment.marks, 1)
	assert.Equal(t, ReschedulingReason, f.appointment.marks[0].reason)
	assert.Equal(t, actor, f.appointment.marks[0].markedBy)

	require.NotNil(t, upcoming.ReschedulingReason)
	assert.Equal(t, ReschedulingReason, *upcoming.ReschedulingReason)
	require.NotNil(t, confirmed.MarkedForReschedulingAt)
	assert.Nil(t, completed.ReschedulingReason)
	assert.Nil(t, elsewhere.ReschedulingReason)
}

func TestTransferMarksWithOwnerWhenNoActor(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	clinic := newClinic(source.ID, "Dermatology")
	f.addClinic(clinic)

	f.hours.byComplex[source.ID] = []*model.WorkingHoursEntry{hoursEntry(1, "08:00", "20:00")}
	f.hours.byComplex[target.ID] = []*model.WorkingHoursEntry{hoursEntry(1, "09:00", "17:00")}

	appt := newAppointment(clinic.ID, model.AppointmentStatusScheduled)
	f.appointment.appointments = []*model.Appointment{appt}

	_, err := f.svc.Transfer(context.Background(), fakeUnitOfWork{}, &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{clinic.ID},
	})
	require.NoError(t, err)

	require.Len(t, f.appointment.marks, 1)
	assert.Equal(t, source.OwnerID, f.appointment.marks[0].markedBy)
	require.NotNil(t, appt.MarkedBy)
	assert.Equal(t, source.OwnerID, *appt.MarkedBy)
}

func TestRunCommitsAndRecordsEvent(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	clinic := newClinic(source.ID, "Dermatology")
	f.addClinic(clinic)

	result, err := f.svc.Run(context.Background(), &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{clinic.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ClinicsTransferred)

	assert.Equal(t, 1, f.txn.commits)
	assert.Equal(t, 0, f.txn.aborts)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventClinicsTransferred, f.outbox.events[0].EventType)
}

func TestRunAbortsOnFailure(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	clinic := newClinic(source.ID, "Dermatology")
	f.addClinic(clinic)
	f.clinics.reassignErr = errors.New("connection reset")

	_, err := f.svc.Run(context.Background(), &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{clinic.ID},
	})
	require.Error(t, err)

	assert.Equal(t, 0, f.txn.commits)
	assert.Equal(t, 1, f.txn.aborts)
	assert.Empty(t, f.outbox.events)
}

func TestRunAbortsWhenEventCannotBeRecorded(t *testing.T) {
	f := newTransferFixture()
	source := newComplex(model.ComplexStatusActive)
	target := newComplex(model.ComplexStatusActive)
	f.addComplex(source)
	f.addComplex(target)

	clinic := newClinic(source.ID, "Dermatology")
	f.addClinic(clinic)
	f.outbox.createErr = errors.New("outbox insert failed")

	_, err := f.svc.Run(context.Background(), &model.TransferRequest{
		SourceComplexID: source.ID,
		TargetComplexID: target.ID,
		ClinicIDs:       []uuid.UUID{clinic.ID},
	})
	require.Error(t, err)
	assert.Equal(t, 1, f.txn.aborts)
}
