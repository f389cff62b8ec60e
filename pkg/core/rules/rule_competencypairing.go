package rules

import (
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// CompetencyPairingRule stops NOT_ASSESSED or NOT_COMPETENT carers working a
// slot unsupervised. Such a carer may only occupy a slot that also contains
// a package-competent carer.
//
// Candidate:
//   - Error when the candidate carer needs supervision and no competent
//     carer is (or simultaneously becomes) present in the slot.
//
// Schedule:
//   - Error per unsupervised carer in each occupied slot.
type CompetencyPairingRule struct{}

func (r *CompetencyPairingRule) Code() model.RuleCode {
	return model.RuleCompetencyPairing
}

func (r *CompetencyPairingRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	carer, ok := in.Schedule.Carer(candidate.CarerID)
	if !ok || !carer.NeedsSupervision() {
		return nil
	}

	entries := slotWithCandidate(in.Schedule, candidate)
	if slotHasCompetentCarer(in.Schedule, entries, candidate.CarerID) {
		return nil
	}

	return []model.RuleViolation{r.violation(in.Schedule, candidate)}
}

func (r *CompetencyPairingRule) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, day := range in.Schedule.Days {
		for _, shiftType := range []model.ShiftType{model.ShiftDay, model.ShiftNight} {
			entries := day.Entries(shiftType)
			for _, e := range entries {
				carer, ok := in.Schedule.Carer(e.CarerID)
				if !ok || !carer.NeedsSupervision() {
					continue
				}
				if slotHasCompetentCarer(in.Schedule, entries, e.CarerID) {
					continue
				}
				violations = append(violations, r.violation(in.Schedule, e))
			}
		}
	}
	return violations
}

func (r *CompetencyPairingRule) violation(s *model.WeeklySchedule, entry model.ShiftEntry) model.RuleViolation {
	name := carerDisplayName(s, entry.CarerID)
	return model.RuleViolation{
		Rule:      model.RuleCompetencyPairing,
		Severity:  model.SeverityError,
		CarerID:   entry.CarerID,
		CarerName: name,
		Message: fmt.Sprintf("%s is not assessed as competent for this package and must be paired with a competent carer on the %s shift on %s",
			name, entry.ShiftType, entry.Date),
		AdditionalInfo: map[string]any{
			"shiftDate": entry.Date.String(),
			"shiftType": string(entry.ShiftType),
		},
		UniqueKey: fmt.Sprintf("%s|%s|%s", model.RuleCompetencyPairing, entry.CarerID, model.SlotKey(entry.Date, entry.ShiftType)),
	}
}

// slotHasCompetentCarer reports whether any entry other than the given
// carer's belongs to a package-competent carer.
func slotHasCompetentCarer(s *model.WeeklySchedule, entries []model.ShiftEntry, excludeCarerID string) bool {
	for _, e := range entries {
		if e.CarerID == excludeCarerID {
			continue
		}
		if carer, ok := s.Carer(e.CarerID); ok && carer.IsPackageCompetent() {
			return true
		}
	}
	return false
}
