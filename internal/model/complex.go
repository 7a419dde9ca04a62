package model

import (
	"time"

	"github.com/google/uuid"
)

type ComplexStatus string

const (
	ComplexStatusActive    ComplexStatus = "active"
	ComplexStatusInactive  ComplexStatus = "inactive"
	ComplexStatusSuspended ComplexStatus = "suspended"
)

// ValidComplexStatus reports whether s is one of the known complex statuses.
func ValidComplexStatus(s ComplexStatus) bool {
	switch s {
	case ComplexStatusActive, ComplexStatusInactive, ComplexStatusSuspended:
		return true
	}
	return false
}

// Complex is the organizational unit that owns clinics. Deactivation
// metadata is populated only while the status is not active.
type Complex struct {
	Base
	Name               string        `db:"name" json:"name"`
	OwnerID            uuid.UUID     `db:"owner_id" json:"owner_id"`
	PersonInChargeID   *uuid.UUID    `db:"person_in_charge_id" json:"person_in_charge_id,omitempty"`
	Status             ComplexStatus `db:"status" json:"status"`
	DeactivatedAt      *time.Time    `db:"deactivated_at" json:"deactivated_at,omitempty"`
	DeactivatedBy      *uuid.UUID    `db:"deactivated_by" json:"deactivated_by,omitempty"`
	DeactivationReason *string       `db:"deactivation_reason" json:"deactivation_reason,omitempty"`
}

// IsActive reports whether the complex currently accepts dependent activity.
func (c *Complex) IsActive() bool {
	return c.Status == ComplexStatusActive
}

// StatusChangeRequest carries a caller-initiated complex status transition.
type StatusChangeRequest struct {
	Status             ComplexStatus
	TargetComplexID    *uuid.UUID
	TransferClinics    bool
	DeactivationReason *string
	ActorID            *uuid.UUID
}

// StatusChangeResult summarizes the cascade triggered by one status change.
type StatusChangeResult struct {
	Complex                           *Complex           `json:"complex"`
	ServicesDeactivated               int64              `json:"services_deactivated"`
	ClinicsTransferred                int64              `json:"clinics_transferred,omitempty"`
	StaffUpdated                      int64              `json:"staff_updated,omitempty"`
	AppointmentsMarkedForRescheduling int64              `json:"appointments_marked_for_rescheduling,omitempty"`
	Conflicts                         []*Conflict        `json:"conflicts,omitempty"`
	Capacity                          *CapacityBreakdown `json:"capacity,omitempty"`
}
