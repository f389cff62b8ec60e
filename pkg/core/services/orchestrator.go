// Package services orchestrates commit operations against the persistence
// boundary: create, confirm, delete and batch-delete, each with exactly one
// summary notification, one audit event on success, and a schedule reload
// whenever the local view may have diverged from persisted truth. The
// schedule is never patched locally; the session always replaces it with
// the server's view.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/internal/metrics"
	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/schedule"
	"github.com/TokiACD/caretrack/pkg/core/violations"
	"github.com/TokiACD/caretrack/pkg/db"
)

// Orchestrator executes commit operations for one scheduling session
type Orchestrator struct {
	store      db.RotaStore
	session    *schedule.Session
	violations *violations.Aggregator
	notifier   Notifier
	audit      AuditSink
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrchestrator wires a mutation orchestrator. metrics may be nil.
func NewOrchestrator(
	store db.RotaStore,
	session *schedule.Session,
	agg *violations.Aggregator,
	notifier Notifier,
	audit AuditSink,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		session:    session,
		violations: agg,
		notifier:   notifier,
		audit:      audit,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// reload refreshes the session after a commit. A failed reload is logged
// but does not replace the operation's own outcome.
func (o *Orchestrator) reload(ctx context.Context) {
	outcome := "ok"
	if err := o.session.Refresh(ctx); err != nil {
		outcome = "error"
		o.logger.Warn("Schedule reload after commit failed", zap.Error(err))
	}
	if o.metrics != nil {
		o.metrics.ScheduleReloads.WithLabelValues(outcome).Inc()
	}
}

// carerDisplay resolves a carer's name from the loaded roster for
// operator-facing messages, falling back to the id.
func (o *Orchestrator) carerDisplay(carerID string) string {
	if current := o.session.Current(); current != nil {
		if c, ok := current.Carer(carerID); ok {
			return c.Name
		}
	}
	return carerID
}

func (o *Orchestrator) countOp(operation, outcome string) {
	if o.metrics != nil {
		o.metrics.CommitOperations.WithLabelValues(operation, outcome).Inc()
	}
}

func (o *Orchestrator) countViolations(violations []model.RuleViolation) {
	if o.metrics == nil {
		return
	}
	for _, v := range violations {
		o.metrics.ViolationsRaised.WithLabelValues(string(v.Rule), string(v.Severity)).Inc()
	}
}
