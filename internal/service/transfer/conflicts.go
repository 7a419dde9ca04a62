package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/model"
)

// DetectConflicts compares each clinic's effective source schedule against
// the target complex's schedule and classifies mismatches. Conflicts are
// advisory and never block a transfer, so this function never returns an
// error: load failures are logged and whatever was found so far is returned.
func (s *Service) DetectConflicts(ctx context.Context, sourceComplexID, targetComplexID uuid.UUID, clinics []*model.Clinic) []*model.Conflict {
	conflicts := make([]*model.Conflict, 0)

	sourceHours, err := s.hoursRepo.ListByComplex(ctx, sourceComplexID)
	if err != nil {
		s.logger.Error(err, "conflict detection skipped: source hours unavailable",
			"source_complex_id", sourceComplexID.String())
		return conflicts
	}

	targetHours, err := s.hoursRepo.ListByComplex(ctx, targetComplexID)
	if err != nil {
		s.logger.Error(err, "conflict detection skipped: target hours unavailable",
			"target_complex_id", targetComplexID.String())
		return conflicts
	}
	targetByDay := scheduleByDay(targetHours)

	for _, clinic := range clinics {
		overrides, err := s.hoursRepo.ListByClinic(ctx, clinic.ID)
		if err != nil {
			s.logger.Error(err, "conflict detection skipped for clinic",
				"clinic_id", clinic.ID.String())
			continue
		}

		// Effective schedule: complex entries overridden per day by any
		// clinic-level entries.
		effective := scheduleByDay(sourceHours)
		for day, entry := range scheduleByDay(overrides) {
			effective[day] = entry
		}

		conflicts = append(conflicts, clinicConflicts(clinic, effective, targetByDay)...)
	}

	return conflicts
}

func clinicConflicts(clinic *model.Clinic, source, target map[int]*model.WorkingHoursEntry) []*model.Conflict {
	if len(source) == 0 {
		return nil
	}
	if len(target) == 0 {
		return []*model.Conflict{{
			ClinicID:   clinic.ID,
			ClinicName: clinic.Name,
			Type:       model.ConflictNoTargetHours,
			Details:    "target complex has no working hours configured",
		}}
	}

	var conflicts []*model.Conflict
	var missingDays []string

	for day := 0; day < 7; day++ {
		src, ok := source[day]
		if !ok || !src.IsWorkingDay {
			continue
		}

		tgt, ok := target[day]
		if !ok || !tgt.IsWorkingDay {
			missingDays = append(missingDays, model.DayName(day))
			continue
		}

		if tgt.OpeningTime > src.OpeningTime || tgt.ClosingTime < src.ClosingTime {
			d := day
			conflicts = append(conflicts, &model.Conflict{
				ClinicID:   clinic.ID,
				ClinicName: clinic.Name,
				Type:       model.ConflictTimeMismatch,
				Day:        &d,
				Details: fmt.Sprintf("%s: clinic operates %s-%s but target complex offers %s-%s",
					model.DayName(day), src.OpeningTime, src.ClosingTime, tgt.OpeningTime, tgt.ClosingTime),
			})
		}
	}

	if len(missingDays) > 0 {
		conflicts = append(conflicts, &model.Conflict{
			ClinicID:   clinic.ID,
			ClinicName: clinic.Name,
			Type:       model.ConflictMissingDays,
			Details:    fmt.Sprintf("target complex has no hours for: %s", strings.Join(missingDays, ", ")),
		})
	}

	return conflicts
}

func scheduleByDay(entries []*model.WorkingHoursEntry) map[int]*model.WorkingHoursEntry {
	byDay := make(map[int]*model.WorkingHoursEntry, len(entries))
	for _, e := range entries {
		byDay[e.DayOfWeek] = e
	}
	return byDay
}
