package model

import (
	"github.com/google/uuid"
)

type StaffRole string

const (
	StaffRoleDoctor       StaffRole = "doctor"
	StaffRoleNurse        StaffRole = "nurse"
	StaffRoleReceptionist StaffRole = "receptionist"
	StaffRoleAdmin        StaffRole = "admin"
	StaffRolePatient      StaffRole = "patient"
)

// StaffAssignment records where a user works. The complex reference is kept
// in lock-step with the owning clinic's complex when clinics move.
type StaffAssignment struct {
	Base
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	ClinicID  *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	ComplexID *uuid.UUID `db:"complex_id" json:"complex_id,omitempty"`
	Role      StaffRole  `db:"role" json:"role"`
	IsActive  bool       `db:"is_active" json:"is_active"`
}
