package rules

import (
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// WeeklyHourLimitRule caps a carer's scheduled hours across the
// Monday-Sunday week. All arithmetic is in whole minutes; the boundary is
// strictly greater-than, so a carer at exactly the limit is legal.
//
// Candidate:
//   - Error when currentMinutes + candidateDuration > limit, reporting both
//     the current total and the limit in additionalInfo.
//
// Schedule:
//   - Error per carer whose committed week already exceeds the limit.
type WeeklyHourLimitRule struct {
	cfg Config
}

func (r *WeeklyHourLimitRule) Code() model.RuleCode {
	return model.RuleWeeklyHourLimit
}

func (r *WeeklyHourLimitRule) EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	current := 0
	for _, e := range in.Schedule.CarerEntries(candidate.CarerID) {
		if e.ID != "" && e.ID == candidate.ID {
			continue
		}
		current += e.DurationMinutes()
	}

	proposed := current + candidate.DurationMinutes()
	if proposed <= r.cfg.WeeklyLimitMinutes {
		return nil
	}

	return []model.RuleViolation{r.violation(in.Schedule, candidate.CarerID, current, proposed)}
}

func (r *WeeklyHourLimitRule) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, carerID := range scheduledCarerIDs(in.Schedule) {
		total := in.Schedule.CarerMinutes(carerID)
		if total > r.cfg.WeeklyLimitMinutes {
			violations = append(violations, r.violation(in.Schedule, carerID, total, total))
		}
	}
	return violations
}

func (r *WeeklyHourLimitRule) violation(s *model.WeeklySchedule, carerID string, currentMinutes, proposedMinutes int) model.RuleViolation {
	name := carerDisplayName(s, carerID)
	return model.RuleViolation{
		Rule:      model.RuleWeeklyHourLimit,
		Severity:  model.SeverityError,
		CarerID:   carerID,
		CarerName: name,
		Message: fmt.Sprintf("%s would be scheduled for %s this week, over the %s limit",
			name, model.FormatMinutes(proposedMinutes), model.FormatMinutes(r.cfg.WeeklyLimitMinutes)),
		AdditionalInfo: map[string]any{
			"currentHours":    model.FormatMinutes(currentMinutes),
			"proposedHours":   model.FormatMinutes(proposedMinutes),
			"limit":           model.FormatMinutes(r.cfg.WeeklyLimitMinutes),
			"currentMinutes":  currentMinutes,
			"proposedMinutes": proposedMinutes,
			"limitMinutes":    r.cfg.WeeklyLimitMinutes,
		},
		UniqueKey: fmt.Sprintf("%s|%s|%s", model.RuleWeeklyHourLimit, carerID, s.WeekStart),
	}
}

// scheduledCarerIDs lists the distinct carers with entries this week, in
// the order their entries occur in the schedule.
func scheduledCarerIDs(s *model.WeeklySchedule) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range s.AllEntries() {
		if seen[e.CarerID] {
			continue
		}
		seen[e.CarerID] = true
		ids = append(ids, e.CarerID)
	}
	return ids
}
