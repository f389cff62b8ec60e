package rules

import (
	"fmt"
	"time"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// RestPeriodRule enforces the minimum gap between opposite-type shifts: a
// carer coming off a NIGHT shift may not start a DAY shift within the rest
// period, and vice versa. Prior-week entries are included via the lookback
// snapshot so a Monday placement still sees Sunday night.
//
// Candidate:
//   - Error when the gap between the candidate and the carer's nearest
//     opposite-type shift (in either direction) is under the rest period.
//   - A warning band above the period can be enabled for near-miss
//     reporting; it never blocks.
//
// Schedule:
//   - Error per adjacent opposite-type pair of one carer's committed
//     entries closer than the rest period.
type RestPeriodRule struct {
	cfg Config
}

func (r *RestPeriodRule) Code() model.RuleCode {
	return model.RuleRestPeriod
}

func (r *RestPeriodRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	opposite := r.oppositeEntries(in, candidate.CarerID, candidate.ShiftType)
	if len(opposite) == 0 {
		return nil
	}

	restPeriod := time.Duration(r.cfg.RestPeriodHours) * time.Hour
	var closest *model.ShiftEntry
	closestGap := time.Duration(-1)
	for i, other := range opposite {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		gap := entryGap(candidate, other)
		if gap < 0 {
			continue // overlapping shifts are a double-booking, not a rest breach
		}
		if closestGap < 0 || gap < closestGap {
			closestGap = gap
			closest = &opposite[i]
		}
	}
	if closest == nil {
		return nil
	}

	if closestGap < restPeriod {
		return []model.RuleViolation{r.violation(in.Schedule, candidate, *closest, closestGap, model.SeverityError)}
	}

	if r.cfg.RestWarningHours > 0 {
		warnBand := restPeriod + time.Duration(r.cfg.RestWarningHours)*time.Hour
		if closestGap < warnBand {
			return []model.RuleViolation{r.violation(in.Schedule, candidate, *closest, closestGap, model.SeverityWarning)}
		}
	}
	return nil
}

func (r *RestPeriodRule) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, carerID := range scheduledCarerIDs(in.Schedule) {
		for _, entry := range in.Schedule.CarerEntries(carerID) {
			// Reuse the candidate check per committed entry; dedup by
			// unique key collapses the symmetric pair reports.
			violations = append(violations, r.EvaluateCandidate(in, entry)...)
		}
	}
	return violations
}

// oppositeEntries collects the carer's opposite-type entries across the
// prior-week snapshot and the current week.
func (r *RestPeriodRule) oppositeEntries(in Input, carerID string, shiftType model.ShiftType) []model.ShiftEntry {
	var entries []model.ShiftEntry
	if in.PriorWeek != nil {
		entries = append(entries, in.PriorWeek.CarerEntries(carerID)...)
	}
	entries = append(entries, in.Schedule.CarerEntries(carerID)...)

	opposite := entries[:0]
	for _, e := range entries {
		if e.ShiftType == shiftType.Opposite() {
			opposite = append(opposite, e)
		}
	}
	return opposite
}

// entryGap returns the rest gap between two entries: earlier end to later
// start. Negative means they overlap.
func entryGap(a, b model.ShiftEntry) time.Duration {
	if a.StartAt().Before(b.StartAt()) {
		return b.StartAt().Sub(a.EndAt())
	}
	return a.StartAt().Sub(b.EndAt())
}

func (r *RestPeriodRule) violation(s *model.WeeklySchedule, entry, opposite model.ShiftEntry, gap time.Duration, severity model.Severity) model.RuleViolation {
	name := carerDisplayName(s, entry.CarerID)
	first, second := opposite, entry
	if entry.StartAt().Before(opposite.StartAt()) {
		first, second = entry, opposite
	}
	return model.RuleViolation{
		Rule:      model.RuleRestPeriod,
		Severity:  severity,
		CarerID:   entry.CarerID,
		CarerName: name,
		Message: fmt.Sprintf("%s has only %s rest between the %s shift on %s and the %s shift on %s (minimum %dh)",
			name, formatGap(gap), first.ShiftType, first.Date, second.ShiftType, second.Date, r.cfg.RestPeriodHours),
		AdditionalInfo: map[string]any{
			"gapHours":        gap.Hours(),
			"requiredHours":   r.cfg.RestPeriodHours,
			"firstShiftDate":  first.Date.String(),
			"firstShiftType":  string(first.ShiftType),
			"secondShiftDate": second.Date.String(),
			"secondShiftType": string(second.ShiftType),
		},
		UniqueKey: fmt.Sprintf("%s|%s|%s|%s", model.RuleRestPeriod, entry.CarerID,
			model.SlotKey(first.Date, first.ShiftType), model.SlotKey(second.Date, second.ShiftType)),
	}
}

func formatGap(gap time.Duration) string {
	return model.FormatMinutes(int(gap.Minutes()))
}
