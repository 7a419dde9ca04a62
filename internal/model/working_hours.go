package model

import (
	"github.com/google/uuid"
)

// WorkingHoursEntry is one day-of-week schedule row scoped to either a
// complex or a clinic. Exactly one of ComplexID/ClinicID is set; at most one
// entry exists per day per scope. Times are "HH:mm" strings, which compare
// correctly as plain strings within a single day.
type WorkingHoursEntry struct {
	Base
	ComplexID    *uuid.UUID `db:"complex_id" json:"complex_id,omitempty"`
	ClinicID     *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	DayOfWeek    int        `db:"day_of_week" json:"day_of_week"` // 0=Sunday .. 6=Saturday
	IsWorkingDay bool       `db:"is_working_day" json:"is_working_day"`
	OpeningTime  string     `db:"opening_time" json:"opening_time"`
	ClosingTime  string     `db:"closing_time" json:"closing_time"`
}

type ConflictType string

const (
	// ConflictNoTargetHours is raised when the target complex has no working
	// hours at all while the clinic's source schedule does.
	ConflictNoTargetHours ConflictType = "no_target_hours"
	// ConflictMissingDays is raised when the target complex has no entry for
	// one or more of the clinic's working days.
	ConflictMissingDays ConflictType = "missing_days"
	// ConflictTimeMismatch is raised when the target opens later or closes
	// earlier than the clinic's source schedule on a given day.
	ConflictTimeMismatch ConflictType = "time_mismatch"
)

// Conflict is an advisory working-hours mismatch found while moving a clinic
// between complexes. Conflicts never block a transfer.
type Conflict struct {
	ClinicID   uuid.UUID    `json:"clinic_id"`
	ClinicName string       `json:"clinic_name,omitempty"`
	Type       ConflictType `json:"type"`
	Day        *int         `json:"day,omitempty"`
	Details    string       `json:"details"`
}

// DayName maps a 0-based day-of-week to its English name.
func DayName(day int) string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if day < 0 || day >= len(names) {
		return "Unknown"
	}
	return names[day]
}
