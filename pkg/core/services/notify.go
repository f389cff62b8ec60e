package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// NotificationLevel classifies a summary notification
type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is the single summary every commit operation yields. Rule
// violations ride alongside as structured items, never folded into the
// summary string, so each one can be inspected and dismissed on its own.
type Notification struct {
	Level      NotificationLevel
	Summary    string
	Violations []model.RuleViolation
}

// Notifier receives operation summaries. Implementations: the CLI printer,
// the gmail digest sender, zap for headless runs.
type Notifier interface {
	Notify(n Notification)
}

// AuditEvent describes one commit operation for the external audit-log
// collaborator. The engine only emits these; formatting and storage belong
// to the collaborator.
type AuditEvent struct {
	EntityType string
	EntityID   string
	Action     string
	Before     any
	After      any
	At         time.Time
}

// AuditSink receives one event per commit operation
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// ZapNotifier logs notifications through the structured logger
type ZapNotifier struct {
	Logger *zap.Logger
}

func (n *ZapNotifier) Notify(notification Notification) {
	fields := []zap.Field{
		zap.String("summary", notification.Summary),
		zap.Int("violations", len(notification.Violations)),
	}
	switch notification.Level {
	case NotifyError:
		n.Logger.Error("Operation notification", fields...)
	case NotifyWarning:
		n.Logger.Warn("Operation notification", fields...)
	default:
		n.Logger.Info("Operation notification", fields...)
	}
}

// ZapAuditSink logs audit events; a production deployment swaps in the
// audit-log collaborator's sink.
type ZapAuditSink struct {
	Logger *zap.Logger
}

func (s *ZapAuditSink) Record(_ context.Context, event AuditEvent) {
	s.Logger.Info("Audit event",
		zap.String("entity_type", event.EntityType),
		zap.String("entity_id", event.EntityID),
		zap.String("action", event.Action),
		zap.Any("before", event.Before),
		zap.Any("after", event.After),
		zap.Time("at", event.At))
}
