package rules

import (
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// MinCompetentStaffRule requires every occupied slot to contain at least one
// carer who is competent for the package.
//
// Candidate:
//   - Applies the candidate hypothetically to its slot and raises an error
//     if the slot would hold staff but zero package-competent carers.
//
// Schedule:
//   - Raises one error per occupied slot that has non-competent carers
//     assigned and no competent carer.
type MinCompetentStaffRule struct{}

func (r *MinCompetentStaffRule) Code() model.RuleCode {
	return model.RuleMinCompetentStaff
}

func (r *MinCompetentStaffRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	entries := slotWithCandidate(in.Schedule, candidate)
	return r.checkSlot(in.Schedule, candidate.Date, candidate.ShiftType, entries)
}

func (r *MinCompetentStaffRule) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, day := range in.Schedule.Days {
		for _, shiftType := range []model.ShiftType{model.ShiftDay, model.ShiftNight} {
			entries := day.Entries(shiftType)
			violations = append(violations, r.checkSlot(in.Schedule, day.Date, shiftType, entries)...)
		}
	}
	return violations
}

func (r *MinCompetentStaffRule) checkSlot(s *model.WeeklySchedule, date model.Date, shiftType model.ShiftType, entries []model.ShiftEntry) []model.RuleViolation {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		carer, ok := s.Carer(e.CarerID)
		if ok && carer.IsPackageCompetent() {
			return nil
		}
	}

	slot := model.SlotKey(date, shiftType)
	return []model.RuleViolation{{
		Rule:     model.RuleMinCompetentStaff,
		Severity: model.SeverityError,
		Message: fmt.Sprintf("%s shift on %s has %d carer(s) assigned but none competent for this package",
			shiftType, date, len(entries)),
		AdditionalInfo: map[string]any{
			"shiftDate":     date.String(),
			"shiftType":     string(shiftType),
			"assignedCount": len(entries),
		},
		UniqueKey: fmt.Sprintf("%s|%s", model.RuleMinCompetentStaff, slot),
	}}
}
