package model

import (
	"github.com/google/uuid"
)

// Service is a bookable offering, linked either to a clinic or to a
// department within a complex. Exactly one of the two links is set.
type Service struct {
	Base
	ClinicID            *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	ComplexDepartmentID *uuid.UUID `db:"complex_department_id" json:"complex_department_id,omitempty"`
	Name                string     `db:"name" json:"name"`
	Duration            int        `db:"duration" json:"duration"` // in minutes
	Price               float64    `db:"price" json:"price"`
	IsActive            bool       `db:"is_active" json:"is_active"`
}

// ComplexDepartment ties a department to its parent complex; services may
// hang off a department instead of a clinic.
type ComplexDepartment struct {
	Base
	ComplexID    uuid.UUID `db:"complex_id" json:"complex_id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
}
