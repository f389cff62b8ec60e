package model

import (
	"fmt"
	"strings"
)

// RuleCode identifies a staffing rule
type RuleCode string

const (
	RuleMinCompetentStaff   RuleCode = "MIN_COMPETENT_STAFF"
	RuleCompetencyPairing   RuleCode = "COMPETENCY_PAIRING"
	RuleWeeklyHourLimit     RuleCode = "WEEKLY_HOUR_LIMIT"
	RuleRotationPattern     RuleCode = "ROTATION_PATTERN"
	RuleConsecutiveWeekends RuleCode = "CONSECUTIVE_WEEKENDS"
	RuleRestPeriod          RuleCode = "REST_PERIOD_VIOLATION"
)

// Severity classifies a violation. Errors block a commit of the evaluated
// placement; warnings are advisory only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RuleViolation is one explainable breach or risk raised by the rule engine
type RuleViolation struct {
	Rule           RuleCode       `json:"rule"`
	Message        string         `json:"message"`
	Severity       Severity       `json:"severity"`
	CarerID        string         `json:"carerId,omitempty"`
	CarerName      string         `json:"carerName,omitempty"`
	AdditionalInfo map[string]any `json:"additionalInfo,omitempty"`
	UniqueKey      string         `json:"uniqueKey,omitempty"`
}

// IsBlocking reports whether the violation refuses a commit
func (v RuleViolation) IsBlocking() bool {
	return v.Severity == SeverityError
}

// ViolationKey derives the canonical deduplication key for a violation.
// Every place that compares violations must use this one derivation:
// an explicit UniqueKey wins, otherwise the (rule, carer, message) tuple.
func ViolationKey(v RuleViolation) string {
	if v.UniqueKey != "" {
		return v.UniqueKey
	}
	carer := v.CarerID
	if carer == "" {
		carer = v.CarerName
	}
	return strings.Join([]string{string(v.Rule), carer, v.Message}, "|")
}

// DedupViolations removes duplicate violations by their canonical key,
// preserving first-occurrence order.
func DedupViolations(violations []RuleViolation) []RuleViolation {
	seen := make(map[string]bool, len(violations))
	result := make([]RuleViolation, 0, len(violations))
	for _, v := range violations {
		key := ViolationKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, v)
	}
	return result
}

// SplitBySeverity partitions violations into blocking errors and warnings
func SplitBySeverity(violations []RuleViolation) (errors, warnings []RuleViolation) {
	for _, v := range violations {
		if v.IsBlocking() {
			errors = append(errors, v)
		} else {
			warnings = append(warnings, v)
		}
	}
	return errors, warnings
}

// SlotKey renders a stable identifier for one slot, used in violation keys
func SlotKey(date Date, shiftType ShiftType) string {
	return fmt.Sprintf("%s:%s", date, shiftType)
}
