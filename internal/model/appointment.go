package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

type Appointment struct {
	Base
	ClinicID                uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	PatientID               uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID                *uuid.UUID        `db:"doctor_id" json:"doctor_id,omitempty"`
	StartTime               time.Time         `db:"start_time" json:"start_time"`
	EndTime                 time.Time         `db:"end_time" json:"end_time"`
	Status                  AppointmentStatus `db:"status" json:"status"`
	ReschedulingReason      *string           `db:"rescheduling_reason" json:"rescheduling_reason,omitempty"`
	MarkedForReschedulingAt *time.Time        `db:"marked_for_rescheduling_at" json:"marked_for_rescheduling_at,omitempty"`
	MarkedBy                *uuid.UUID        `db:"marked_by" json:"marked_by,omitempty"`
}

// EligibleForRescheduling reports whether the appointment may carry a
// rescheduling mark: not deleted, and still in a pre-visit status.
func (a *Appointment) EligibleForRescheduling() bool {
	if a.IsDeleted() {
		return false
	}
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed
}
