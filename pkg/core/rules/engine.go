// Package rules implements the staffing rule engine. Each rule is an
// independent evaluator; the engine runs every rule and concatenates the
// results so an operator always sees the complete picture for a candidate
// placement, never just the first breach found.
package rules

import (
	"time"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// Config carries the tunable thresholds for the rule set
type Config struct {
	// WeeklyLimitMinutes caps a carer's Monday-Sunday scheduled minutes.
	// The boundary is strict: exactly the limit is fine, one minute over
	// is a violation.
	WeeklyLimitMinutes int

	// RestPeriodHours is the minimum gap between opposite-type shifts
	RestPeriodHours int

	// RestWarningHours widens the rest check by a near-miss warning band.
	// Zero disables the band.
	RestWarningHours int

	// WeekendLookback selects how "prior week" is interpreted for the
	// consecutive-weekends rule.
	WeekendLookback WeekendLookback

	// RotationMinShifts is how many same-type shifts a carer must have
	// worked in the prior week before the rotation-pattern advisory fires.
	RotationMinShifts int
}

// WeekendLookback selects the prior-week boundary semantics
type WeekendLookback string

const (
	// LookbackCalendar treats "prior week" as the Monday-start calendar
	// week before the schedule's week.
	LookbackCalendar WeekendLookback = "calendar"

	// LookbackRolling compares against the same weekend day exactly seven
	// days earlier.
	LookbackRolling WeekendLookback = "rolling"
)

// DefaultConfig returns the regulatory defaults
func DefaultConfig() Config {
	return Config{
		WeeklyLimitMinutes: 36 * 60,
		RestPeriodHours:    48,
		RestWarningHours:   0,
		WeekendLookback:    LookbackCalendar,
		RotationMinShifts:  3,
	}
}

// Input is everything a rule may consult. Rules are pure: any prior-week
// data they need arrives here as a snapshot, fetched by the caller, and the
// evaluation clock is injected rather than read from the system.
type Input struct {
	Schedule  *model.WeeklySchedule
	PriorWeek *model.WeeklySchedule // may be nil when no lookback data exists
	Now       time.Time
}

// Rule is one independent staffing rule. EvaluateCandidate judges a
// hypothetical placement against the schedule; EvaluateSchedule scans the
// whole committed schedule for standing violations.
type Rule interface {
	Code() model.RuleCode
	EvaluateCandidate(in Input, candidate model.ShiftEntry) []model.RuleViolation
	EvaluateSchedule(in Input) []model.RuleViolation
}

// Engine composes the full rule set
type Engine struct {
	cfg   Config
	rules []Rule
}

// NewEngine creates an engine running all six staffing rules
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		rules: []Rule{
			&MinCompetentStaffRule{},
			&CompetencyPairingRule{},
			&WeeklyHourLimitRule{cfg: cfg},
			&RestPeriodRule{cfg: cfg},
			&ConsecutiveWeekendsRule{cfg: cfg},
			&RotationPatternRule{cfg: cfg},
		},
	}
}

// Config returns the thresholds the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate runs every rule against the candidate placement and concatenates
// all violations. The engine never mutates the schedule and never short-
// circuits. Results are unordered; presentation groups them by rule.
func (e *Engine) Evaluate(in Input, candidate model.ShiftEntry) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, rule := range e.rules {
		violations = append(violations, rule.EvaluateCandidate(in, candidate)...)
	}
	return violations
}

// EvaluateSchedule scans the whole current schedule and returns the standing
// violations, deduplicated by the canonical key.
func (e *Engine) EvaluateSchedule(in Input) []model.RuleViolation {
	var violations []model.RuleViolation
	for _, rule := range e.rules {
		violations = append(violations, rule.EvaluateSchedule(in)...)
	}
	return model.DedupViolations(violations)
}

// slotWithCandidate returns the slot's entries with the candidate applied
// hypothetically, replacing any existing entry for the same carer rather
// than double-counting it.
func slotWithCandidate(s *model.WeeklySchedule, candidate model.ShiftEntry) []model.ShiftEntry {
	entries := []model.ShiftEntry{}
	for _, e := range s.SlotEntries(candidate.Date, candidate.ShiftType) {
		if e.CarerID == candidate.CarerID {
			continue
		}
		entries = append(entries, e)
	}
	return append(entries, candidate)
}

// carerDisplayName resolves a carer's name for violation messages, falling
// back to the id when the roster does not know them.
func carerDisplayName(s *model.WeeklySchedule, carerID string) string {
	if c, ok := s.Carer(carerID); ok {
		return c.Name
	}
	return carerID
}
