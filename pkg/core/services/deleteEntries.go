package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/db"
)

// DeleteEntry removes one shift entry
func (o *Orchestrator) DeleteEntry(ctx context.Context, entryID string) error {
	o.logger.Debug("Deleting shift entry", zap.String("entry_id", entryID))

	var before any
	if current := o.session.Current(); current != nil {
		if existing, ok := current.FindEntry(entryID); ok {
			before = existing
		}
	}

	if err := o.store.DeleteEntry(ctx, entryID); err != nil {
		return o.deleteFailed(ctx, entryID, err)
	}

	o.reload(ctx)
	o.countOp("delete", "success")
	o.notifier.Notify(Notification{Level: NotifyInfo, Summary: "Shift entry deleted"})
	o.audit.Record(ctx, AuditEvent{
		EntityType: "rota_entry",
		EntityID:   entryID,
		Action:     "deleted",
		Before:     before,
		After:      nil,
		At:         o.now(),
	})
	return nil
}

func (o *Orchestrator) deleteFailed(ctx context.Context, entryID string, err error) error {
	switch {
	case db.IsNotFound(err):
		o.countOp("delete", "conflict")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: "That shift was already deleted by another operator; the schedule has been refreshed",
		})
	case db.IsTransport(err):
		o.countOp("delete", "transport_error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: "Could not reach the rota service deleting the shift; the schedule has been refreshed, please retry",
		})
	default:
		o.countOp("delete", "error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: fmt.Sprintf("Failed to delete shift: %v", err),
		})
	}
	return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
}

// BatchDeleteEntries attempts to delete every id. Partial failure is a
// success state: the notification reports both the deleted count and each
// remaining per-id error; only a batch that deleted nothing is a failure.
func (o *Orchestrator) BatchDeleteEntries(ctx context.Context, entryIDs []string) (*db.BatchDeleteResult, error) {
	o.logger.Debug("Batch deleting shift entries", zap.Int("count", len(entryIDs)))

	result, err := o.store.BatchDeleteEntries(ctx, entryIDs)
	if err != nil {
		o.countOp("batch_delete", "error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: fmt.Sprintf("Batch delete failed: %v", err),
		})
		return nil, fmt.Errorf("batch delete failed: %w", err)
	}

	// Anything may have changed server-side whatever the outcome; reload
	// before reporting.
	o.reload(ctx)

	if result.IsTotalFailure() {
		o.countOp("batch_delete", "failure")
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: fmt.Sprintf("No entries deleted; %d error(s)", len(result.Errors)),
		})
		return result, fmt.Errorf("batch delete removed nothing: %d error(s)", len(result.Errors))
	}

	if len(result.Errors) > 0 {
		o.countOp("batch_delete", "partial")
		o.notifier.Notify(Notification{
			Level: NotifyWarning,
			Summary: fmt.Sprintf("Deleted %d of %d entries; %d could not be deleted",
				result.DeletedCount, len(entryIDs), len(result.Errors)),
		})
	} else {
		o.countOp("batch_delete", "success")
		o.notifier.Notify(Notification{
			Level:   NotifyInfo,
			Summary: fmt.Sprintf("Deleted %d entries", result.DeletedCount),
		})
	}

	o.audit.Record(ctx, AuditEvent{
		EntityType: "rota_entry",
		EntityID:   fmt.Sprintf("batch(%d)", len(entryIDs)),
		Action:     "batch_deleted",
		Before:     entryIDs,
		After:      result,
		At:         o.now(),
	})
	return result, nil
}
