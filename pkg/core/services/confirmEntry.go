package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/db"
)

// ConfirmEntry flips an entry's confirmed flag. Confirming twice is benign;
// a NotFound means another operator deleted the entry between our read and
// this write, in which case the schedule is reloaded before reporting so
// the caller re-presents a truthful view instead of assuming success.
func (o *Orchestrator) ConfirmEntry(ctx context.Context, entryID string) error {
	o.logger.Debug("Confirming shift entry", zap.String("entry_id", entryID))

	var before any
	if current := o.session.Current(); current != nil {
		if existing, ok := current.FindEntry(entryID); ok {
			before = existing
		}
	}

	entry, err := o.store.ConfirmEntry(ctx, entryID)
	if err != nil {
		return o.confirmFailed(ctx, entryID, err)
	}

	o.reload(ctx)
	o.countOp("confirm", "success")
	o.notifier.Notify(Notification{
		Level:   NotifyInfo,
		Summary: fmt.Sprintf("Shift on %s (%s) confirmed", entry.Date, entry.ShiftType),
	})
	o.audit.Record(ctx, AuditEvent{
		EntityType: "rota_entry",
		EntityID:   entryID,
		Action:     "confirmed",
		Before:     before,
		After:      entry,
		At:         o.now(),
	})
	return nil
}

func (o *Orchestrator) confirmFailed(ctx context.Context, entryID string, err error) error {
	switch {
	case db.IsNotFound(err):
		o.countOp("confirm", "conflict")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: "That shift was deleted by another operator; the schedule has been refreshed",
		})
	case db.IsTransport(err):
		o.countOp("confirm", "transport_error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: "Could not reach the rota service confirming the shift; the schedule has been refreshed, please retry",
		})
	default:
		o.countOp("confirm", "error")
		o.reload(ctx)
		o.notifier.Notify(Notification{
			Level:   NotifyError,
			Summary: fmt.Sprintf("Failed to confirm shift: %v", err),
		})
	}
	return fmt.Errorf("failed to confirm entry %s: %w", entryID, err)
}
