package model

import (
	"github.com/google/uuid"
)

// CapacityTotals sums the configured limits of a complex's active clinics.
type CapacityTotals struct {
	MaxDoctors  int `json:"max_doctors"`
	MaxStaff    int `json:"max_staff"`
	MaxPatients int `json:"max_patients"`
}

// CapacityCurrent holds live usage counts scoped to the same clinics.
type CapacityCurrent struct {
	Doctors  int `json:"doctors"`
	Staff    int `json:"staff"`
	Patients int `json:"patients"`
}

// CapacityUtilization is current/total expressed as whole percent, 0 when
// the corresponding total is 0.
type CapacityUtilization struct {
	Doctors  int `json:"doctors"`
	Staff    int `json:"staff"`
	Patients int `json:"patients"`
}

// ClinicCapacity is the per-clinic slice of a complex capacity breakdown.
type ClinicCapacity struct {
	ClinicID    uuid.UUID           `json:"clinic_id"`
	ClinicName  string              `json:"clinic_name"`
	Totals      CapacityTotals      `json:"totals"`
	Current     CapacityCurrent     `json:"current"`
	Utilization CapacityUtilization `json:"utilization"`
}

type CapacityBreakdown struct {
	ComplexID       uuid.UUID           `json:"complex_id"`
	Totals          CapacityTotals      `json:"totals"`
	Current         CapacityCurrent     `json:"current"`
	Utilization     CapacityUtilization `json:"utilization"`
	ByClinic        []*ClinicCapacity   `json:"by_clinic"`
	Recommendations []string            `json:"recommendations,omitempty"`
}
