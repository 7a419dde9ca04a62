package model

import (
	"github.com/google/uuid"
)

type Clinic struct {
	Base
	ComplexID   uuid.UUID `db:"complex_id" json:"complex_id"`
	Name        string    `db:"name" json:"name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	MaxDoctors  int       `db:"max_doctors" json:"max_doctors"`
	MaxStaff    int       `db:"max_staff" json:"max_staff"`
	MaxPatients int       `db:"max_patients" json:"max_patients"`
}
