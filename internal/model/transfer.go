package model

import (
	"github.com/google/uuid"
)

// TransferRequest moves a batch of clinics from one complex to another.
type TransferRequest struct {
	SourceComplexID uuid.UUID
	TargetComplexID uuid.UUID
	ClinicIDs       []uuid.UUID
	ActorID         *uuid.UUID
}

// TransferResult reports exact row counts for each step of a clinic
// transfer plus the advisory conflict list.
type TransferResult struct {
	ClinicsTransferred                int64       `json:"clinics_transferred"`
	StaffUpdated                      int64       `json:"staff_updated"`
	AppointmentsMarkedForRescheduling int64       `json:"appointments_marked_for_rescheduling"`
	Conflicts                         []*Conflict `json:"conflicts"`
}
