package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/core/schedule"
	"github.com/TokiACD/caretrack/pkg/core/violations"
	"github.com/TokiACD/caretrack/pkg/db"
)

var weekStart = model.NewDate(2026, time.March, 2) // a Monday

// fakeStore implements the persistence boundary and doubles as the session's
// schedule loader.
type fakeStore struct {
	schedule *model.WeeklySchedule
	loads    int

	createResult *db.CreateEntryResult
	createErr    error

	confirmEntry *model.ShiftEntry
	confirmErr   error

	deleteErr error

	batchResult *db.BatchDeleteResult
	batchErr    error
}

func (f *fakeStore) GetWeeklySchedule(ctx context.Context, packageID string, ws model.Date) (*model.WeeklySchedule, error) {
	f.loads++
	if f.schedule != nil && ws == f.schedule.WeekStart {
		return f.schedule, nil
	}
	return nil, errors.New("no data for week")
}

func (f *fakeStore) ValidateEntry(ctx context.Context, candidate model.ShiftEntry) (*model.ValidationResult, error) {
	return &model.ValidationResult{IsValid: true}, nil
}

func (f *fakeStore) CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*db.CreateEntryResult, error) {
	return f.createResult, f.createErr
}

func (f *fakeStore) ConfirmEntry(ctx context.Context, entryID string) (*model.ShiftEntry, error) {
	return f.confirmEntry, f.confirmErr
}

func (f *fakeStore) DeleteEntry(ctx context.Context, entryID string) error {
	return f.deleteErr
}

func (f *fakeStore) BatchDeleteEntries(ctx context.Context, entryIDs []string) (*db.BatchDeleteResult, error) {
	return f.batchResult, f.batchErr
}

type capturingNotifier struct {
	notifications []Notification
}

func (c *capturingNotifier) Notify(n Notification) {
	c.notifications = append(c.notifications, n)
}

func (c *capturingNotifier) last(t *testing.T) Notification {
	t.Helper()
	require.NotEmpty(t, c.notifications)
	return c.notifications[len(c.notifications)-1]
}

type capturingAudit struct {
	events []AuditEvent
}

func (c *capturingAudit) Record(ctx context.Context, event AuditEvent) {
	c.events = append(c.events, event)
}

type fixture struct {
	store    *fakeStore
	session  *schedule.Session
	agg      *violations.Aggregator
	notifier *capturingNotifier
	audit    *capturingAudit
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &fakeStore{schedule: model.NewWeeklySchedule("pkg-1", weekStart)}
	agg := violations.NewAggregator(0)
	engine := rules.NewEngine(rules.DefaultConfig())
	session := schedule.NewSession(store, engine, agg, zap.NewNop())
	session.SetClock(func() time.Time { return weekStart.At(0) })
	require.NoError(t, session.Switch(context.Background(), "pkg-1", weekStart))

	notifier := &capturingNotifier{}
	audit := &capturingAudit{}
	orch := NewOrchestrator(store, session, agg, notifier, audit, nil, zap.NewNop())
	// Two loads so far: current week plus the failed prior-week lookback
	store.loads = 0
	return &fixture{store: store, session: session, agg: agg, notifier: notifier, audit: audit, orch: orch}
}

func candidateEntry() model.ShiftEntry {
	return model.ShiftEntry{
		PackageID: "pkg-1",
		CarerID:   "amira",
		Date:      weekStart.AddDays(2),
		ShiftType: model.ShiftDay,
		StartTime: model.TimeOfDay(8 * 60),
		EndTime:   model.TimeOfDay(20 * 60),
	}
}

func TestCreateEntrySuccessReloadsAndAudits(t *testing.T) {
	f := newFixture(t)
	entry := candidateEntry()
	entry.ID = "e1"
	f.store.createResult = &db.CreateEntryResult{Entry: entry}

	result, err := f.orch.CreateEntry(context.Background(), candidateEntry())
	require.NoError(t, err)
	assert.Equal(t, "e1", result.Entry.ID)

	// One refresh: current week plus the prior-week lookback attempt
	assert.Equal(t, 2, f.store.loads)

	n := f.notifier.last(t)
	assert.Equal(t, NotifyInfo, n.Level)

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "created", f.audit.events[0].Action)
	assert.Equal(t, "e1", f.audit.events[0].EntityID)
}

func TestCreateEntrySummaryUsesRosterName(t *testing.T) {
	f := newFixture(t)
	f.store.schedule.PackageCarers = []model.Carer{{ID: "amira", Name: "Amira Hassan"}}
	entry := candidateEntry()
	entry.ID = "e1"
	f.store.createResult = &db.CreateEntryResult{Entry: entry}

	_, err := f.orch.CreateEntry(context.Background(), candidateEntry())
	require.NoError(t, err)

	assert.Contains(t, f.notifier.last(t).Summary, "Amira Hassan")
}

func TestCreateEntryWarningsReachTheRecentBucket(t *testing.T) {
	f := newFixture(t)
	entry := candidateEntry()
	entry.ID = "e1"
	warning := model.RuleViolation{
		Rule:     model.RuleConsecutiveWeekends,
		CarerID:  "amira",
		Message:  "second weekend in a row",
		Severity: model.SeverityWarning,
	}
	f.store.createResult = &db.CreateEntryResult{Entry: entry, Warnings: []model.RuleViolation{warning}}

	_, err := f.orch.CreateEntry(context.Background(), candidateEntry())
	require.NoError(t, err)

	n := f.notifier.last(t)
	assert.Equal(t, NotifyWarning, n.Level)
	require.Len(t, n.Violations, 1)

	visible := f.agg.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "second weekend in a row", visible[0].Message)
}

func TestCreateEntryRefusalSkipsReload(t *testing.T) {
	f := newFixture(t)
	verr := &db.ValidationError{Violations: []model.RuleViolation{{
		Rule:     model.RuleWeeklyHourLimit,
		CarerID:  "amira",
		Message:  "over the weekly limit",
		Severity: model.SeverityError,
	}}}
	f.store.createErr = verr

	_, err := f.orch.CreateEntry(context.Background(), candidateEntry())
	require.Error(t, err)
	got, ok := db.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, got.Violations, 1)

	// Nothing was persisted, so the local view is still accurate
	assert.Equal(t, 0, f.store.loads)
	assert.Empty(t, f.audit.events)

	n := f.notifier.last(t)
	assert.Equal(t, NotifyError, n.Level)
	require.Len(t, n.Violations, 1)
	assert.Len(t, f.agg.Visible(), 1)
}

func TestCreateEntryTransportFailureReloads(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = &db.TransportError{Op: "create entry", Err: errors.New("timeout")}

	_, err := f.orch.CreateEntry(context.Background(), candidateEntry())
	require.Error(t, err)
	assert.True(t, db.IsTransport(err))

	// The true outcome is unknown; the schedule must be re-fetched
	assert.Equal(t, 2, f.store.loads)
	assert.Empty(t, f.audit.events)
}

func TestConfirmEntrySuccess(t *testing.T) {
	f := newFixture(t)
	entry := candidateEntry()
	entry.ID = "e1"
	entry.IsConfirmed = true
	f.store.confirmEntry = &entry

	require.NoError(t, f.orch.ConfirmEntry(context.Background(), "e1"))

	assert.Equal(t, 2, f.store.loads)
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "confirmed", f.audit.events[0].Action)
}

func TestConfirmEntryTwiceIsBenign(t *testing.T) {
	f := newFixture(t)
	entry := candidateEntry()
	entry.ID = "e1"
	entry.IsConfirmed = true
	f.store.confirmEntry = &entry

	// The second confirm of the same entry succeeds just like the first
	require.NoError(t, f.orch.ConfirmEntry(context.Background(), "e1"))
	require.NoError(t, f.orch.ConfirmEntry(context.Background(), "e1"))

	require.Len(t, f.notifier.notifications, 2)
	for _, n := range f.notifier.notifications {
		assert.Equal(t, NotifyInfo, n.Level)
	}

	require.Len(t, f.audit.events, 2)
	for _, event := range f.audit.events {
		assert.Equal(t, "confirmed", event.Action)
		confirmed, ok := event.After.(*model.ShiftEntry)
		require.True(t, ok)
		assert.True(t, confirmed.IsConfirmed)
	}
}

func TestConfirmEntryConcurrentDelete(t *testing.T) {
	f := newFixture(t)
	f.store.confirmErr = &db.NotFoundError{Resource: "rota entry", ID: "e1"}

	err := f.orch.ConfirmEntry(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	// The stale view is replaced before the failure is reported
	assert.Equal(t, 2, f.store.loads)

	n := f.notifier.last(t)
	assert.Equal(t, NotifyError, n.Level)
	assert.Contains(t, n.Summary, "deleted by another operator")
}

func TestDeleteEntrySuccess(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.orch.DeleteEntry(context.Background(), "e1"))

	assert.Equal(t, 2, f.store.loads)
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "deleted", f.audit.events[0].Action)
	assert.Equal(t, "e1", f.audit.events[0].EntityID)
}

func TestDeleteEntryAlreadyGone(t *testing.T) {
	f := newFixture(t)
	f.store.deleteErr = &db.NotFoundError{Resource: "rota entry", ID: "e1"}

	err := f.orch.DeleteEntry(context.Background(), "e1")
	require.Error(t, err)
	assert.Contains(t, f.notifier.last(t).Summary, "already deleted")
}

func TestBatchDeletePartialFailureIsSuccess(t *testing.T) {
	f := newFixture(t)
	f.store.batchResult = &db.BatchDeleteResult{
		DeletedCount: 3,
		Errors: []db.BatchDeleteError{
			{EntryID: "e4", Error: "rota entry e4 not found"},
			{EntryID: "e5", Error: "rota entry e5 not found"},
		},
	}

	result, err := f.orch.BatchDeleteEntries(context.Background(), []string{"e1", "e2", "e3", "e4", "e5"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.DeletedCount)

	n := f.notifier.last(t)
	assert.Equal(t, NotifyWarning, n.Level)
	assert.Contains(t, n.Summary, "Deleted 3 of 5")

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "batch_deleted", f.audit.events[0].Action)
}

func TestBatchDeleteTotalFailureIsError(t *testing.T) {
	f := newFixture(t)
	f.store.batchResult = &db.BatchDeleteResult{
		DeletedCount: 0,
		Errors: []db.BatchDeleteError{
			{EntryID: "e1", Error: "rota entry e1 not found"},
			{EntryID: "e2", Error: "rota entry e2 not found"},
		},
	}

	_, err := f.orch.BatchDeleteEntries(context.Background(), []string{"e1", "e2"})
	require.Error(t, err)
	assert.Equal(t, NotifyError, f.notifier.last(t).Level)
	assert.Empty(t, f.audit.events)
}

func TestBatchDeleteCleanSuccess(t *testing.T) {
	f := newFixture(t)
	f.store.batchResult = &db.BatchDeleteResult{DeletedCount: 2}

	result, err := f.orch.BatchDeleteEntries(context.Background(), []string{"e1", "e2"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)
	assert.Equal(t, NotifyInfo, f.notifier.last(t).Level)
}
