package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/db"
)

// CreateEntry commits a candidate shift entry through the persistence
// boundary. The server runs the authoritative rule check inside its own
// transaction; its violations and warnings, not any client-side preview,
// populate the recent violation bucket.
func (o *Orchestrator) CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*db.CreateEntryResult, error) {
	o.logger.Debug("Creating shift entry",
		zap.String("package_id", candidate.PackageID),
		zap.String("carer_id", candidate.CarerID),
		zap.String("date", candidate.Date.String()),
		zap.String("shift_type", string(candidate.ShiftType)))

	result, err := o.store.CreateEntry(ctx, candidate)
	if err != nil {
		return nil, o.createFailed(ctx, candidate, err)
	}

	o.reload(ctx)
	o.countOp("create", "success")
	o.countViolations(append(result.Violations, result.Warnings...))
	o.violations.AddRecent(append(result.Violations, result.Warnings...)...)

	level := NotifyInfo
	summary := fmt.Sprintf("Shift created for %s on %s (%s)", o.carerDisplay(candidate.CarerID), candidate.Date, candidate.ShiftType)
	if len(result.Warnings) > 0 {
		level = NotifyWarning
		summary = fmt.Sprintf("%s with %d warning(s)", summary, len(result.Warnings))
	}
	o.notifier.Notify(Notification{Level: level, Summary: summary, Violations: append(result.Violations, result.Warnings...)})

	o.audit.Record(ctx, AuditEvent{
		EntityType: "rota_entry",
		EntityID:   result.Entry.ID,
		Action:     "created",
		Before:     nil,
		After:      result.Entry,
		At:         o.now(),
	})
	return result, nil
}

// createFailed classifies a create failure, keeps the local view honest,
// and yields the single summary notification for the operation.
func (o *Orchestrator) createFailed(ctx context.Context, candidate model.ShiftEntry, err error) error {
	if verr, ok := db.AsValidation(err); ok {
		// Refused before persistence; the local view is still accurate,
		// so no reload. Surface every violation, never a collapsed string.
		o.countOp("create", "refused")
		o.countViolations(verr.Violations)
		o.violations.AddRecent(verr.Violations...)
		o.notifier.Notify(Notification{
			Level:      NotifyError,
			Summary:    fmt.Sprintf("Placement refused: %d rule violation(s)", len(verr.Violations)),
			Violations: verr.Violations,
		})
		return err
	}

	if db.IsTransport(err) {
		// The commit may or may not have happened. Reload to learn the
		// true outcome rather than guessing either way.
		o.countOp("create", "transport_error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: fmt.Sprintf("Could not reach the rota service creating the shift for %s; the schedule has been refreshed, please retry if the shift is missing", candidate.Date),
		})
		return err
	}

	o.countOp("create", "error")
	o.reload(ctx)
	o.notifier.Notify(Notification{
		Level:   NotifyError,
		Summary: fmt.Sprintf("Failed to create shift entry: %v", err),
	})
	return fmt.Errorf("failed to create shift entry: %w", err)
}
