// Package placement implements the validate-before-commit flow: a
// Validator that judges a proposed placement without writing anything, and
// the drag-and-drop protocol state machine layered on top of it.
package placement

import (
	"context"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/core/schedule"
)

// ScheduleSource supplies the engine input for a validation. Satisfied by
// *schedule.Session.
type ScheduleSource interface {
	Input() (rules.Input, error)
	Refresh(ctx context.Context) error
}

// Validator checks a proposed placement against the rule engine. It
// performs no writes; the authoritative gate is the server-side check run
// at commit time.
type Validator struct {
	source ScheduleSource
	engine *rules.Engine
	times  schedule.ShiftTimes
	logger *zap.Logger
}

// NewValidator creates a placement validator over the given session
func NewValidator(source ScheduleSource, engine *rules.Engine, times schedule.ShiftTimes, logger *zap.Logger) *Validator {
	return &Validator{source: source, engine: engine, times: times, logger: logger}
}

// Candidate builds the hypothetical entry a placement implies. Zero start
// and end fall back to the slot defaults for the date and shift type.
func (v *Validator) Candidate(packageID, carerID string, date model.Date, shiftType model.ShiftType, start, end model.TimeOfDay) model.ShiftEntry {
	if start == 0 && end == 0 {
		slot := v.times.For(date, shiftType)
		start, end = slot.Start, slot.End
	}
	return model.ShiftEntry{
		PackageID: packageID,
		CarerID:   carerID,
		Date:      date,
		ShiftType: shiftType,
		StartTime: start,
		EndTime:   end,
	}
}

// Validate evaluates the candidate and partitions the result by severity.
// This is an advisory check for UX guidance: when the schedule snapshot
// cannot be obtained (transport failure on refresh) it logs a warning and
// reports not-valid with an empty violation list instead of raising, so a
// broken preview can never be mistaken for a named rule breach nor allow a
// silent commit.
func (v *Validator) Validate(ctx context.Context, candidate model.ShiftEntry) model.ValidationResult {
	in, err := v.source.Input()
	if err != nil {
		if refreshErr := v.source.Refresh(ctx); refreshErr != nil {
			v.logger.Warn("Placement validation unavailable",
				zap.String("package_id", candidate.PackageID),
				zap.String("carer_id", candidate.CarerID),
				zap.Error(refreshErr))
			return model.ValidationResult{IsValid: false, Violations: []model.RuleViolation{}, Warnings: []model.RuleViolation{}}
		}
		in, err = v.source.Input()
		if err != nil {
			v.logger.Warn("Placement validation unavailable", zap.Error(err))
			return model.ValidationResult{IsValid: false, Violations: []model.RuleViolation{}, Warnings: []model.RuleViolation{}}
		}
	}

	violations := v.engine.Evaluate(in, candidate)
	result := model.ResultFromViolations(violations)

	v.logger.Debug("Placement validated",
		zap.String("carer_id", candidate.CarerID),
		zap.String("date", candidate.Date.String()),
		zap.String("shift_type", string(candidate.ShiftType)),
		zap.Bool("is_valid", result.IsValid),
		zap.Int("violations", len(result.Violations)),
		zap.Int("warnings", len(result.Warnings)))
	return result
}
