package placement

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
)

var testWeekStart = model.NewDate(2026, time.March, 2) // a Monday

func competentCarer(id, name string) model.Carer {
	return model.Carer{
		ID:   id,
		Name: name,
		PackageCompetency: &model.PackageCompetency{
			CompetentTaskCount: 3,
			TotalTaskCount:     3,
			IsPackageCompetent: true,
		},
	}
}

func testSchedule() *model.WeeklySchedule {
	s := model.NewWeeklySchedule("pkg-1", testWeekStart)
	s.PackageCarers = []model.Carer{
		competentCarer("amira", "Amira"),
		{ID: "ben", Name: "Ben"}, // never assessed
	}
	return s
}

// fakeSource hands out a canned engine input, optionally failing
type fakeSource struct {
	in         rules.Input
	inputErr   error
	refreshErr error
	refreshes  int
}

func (f *fakeSource) Input() (rules.Input, error) {
	if f.inputErr != nil {
		return rules.Input{}, f.inputErr
	}
	return f.in, nil
}

func (f *fakeSource) Refresh(ctx context.Context) error {
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.inputErr = nil
	return nil
}

func newTestValidator(source ScheduleSource) *Validator {
	engine := rules.NewEngine(rules.DefaultConfig())
	return NewValidator(source, engine, schedule.DefaultShiftTimes(), zap.NewNop())
}

func TestCandidateFallsBackToSlotDefaults(t *testing.T) {
	v := newTestValidator(&fakeSource{})

	c := v.Candidate("pkg-1", "amira", testWeekStart, model.ShiftNight, 0, 0)
	assert.Equal(t, model.TimeOfDay(20*60), c.StartTime)
	assert.Equal(t, model.TimeOfDay(8*60), c.EndTime)

	// Explicit times are kept as given
	c = v.Candidate("pkg-1", "amira", testWeekStart, model.ShiftDay, model.TimeOfDay(9*60), model.TimeOfDay(17*60))
	assert.Equal(t, model.TimeOfDay(9*60), c.StartTime)
	assert.Equal(t, model.TimeOfDay(17*60), c.EndTime)
}

func TestValidateCompetentPlacement(t *testing.T) {
	src := &fakeSource{in: rules.Input{Schedule: testSchedule(), Now: testWeekStart.At(0)}}
	v := newTestValidator(src)

	candidate := v.Candidate("pkg-1", "amira", testWeekStart.AddDays(2), model.ShiftDay, 0, 0)
	result := v.Validate(context.Background(), candidate)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
}

func TestValidateUnsupervisedPlacement(t *testing.T) {
	src := &fakeSource{in: rules.Input{Schedule: testSchedule(), Now: testWeekStart.At(0)}}
	v := newTestValidator(src)

	// Ben alone in a slot breaches both staffing rules
	candidate := v.Candidate("pkg-1", "ben", testWeekStart.AddDays(2), model.ShiftDay, 0, 0)
	result := v.Validate(context.Background(), candidate)

	require.False(t, result.IsValid)
	codes := make(map[model.RuleCode]bool)
	for _, viol := range result.Violations {
		codes[viol.Rule] = true
	}
	assert.True(t, codes[model.RuleMinCompetentStaff])
	assert.True(t, codes[model.RuleCompetencyPairing])
}

func TestValidateFailsOpenWhenScheduleUnavailable(t *testing.T) {
	src := &fakeSource{
		inputErr:   errors.New("no schedule loaded"),
		refreshErr: errors.New("server unreachable"),
	}
	v := newTestValidator(src)

	candidate := v.Candidate("pkg-1", "amira", testWeekStart, model.ShiftDay, 0, 0)
	result := v.Validate(context.Background(), candidate)

	// Not-valid with nothing attached: unavailability is never presented as
	// a rule breach.
	assert.False(t, result.IsValid)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, src.refreshes)
}

// stubLoader serves one canned week for session-backed validation
type stubLoader struct {
	schedule *model.WeeklySchedule
}

func (l *stubLoader) GetWeeklySchedule(ctx context.Context, packageID string, ws model.Date) (*model.WeeklySchedule, error) {
	if l.schedule != nil && ws == l.schedule.WeekStart {
		return l.schedule, nil
	}
	return nil, errors.New("no data for week")
}

func TestValidateOverSession(t *testing.T) {
	loader := &stubLoader{schedule: testSchedule()}
	engine := rules.NewEngine(rules.DefaultConfig())
	sess := schedule.NewSession(loader, engine, violations.NewAggregator(0), zap.NewNop())
	sess.SetClock(func() time.Time { return testWeekStart.At(0) })
	v := NewValidator(sess, engine, schedule.DefaultShiftTimes(), zap.NewNop())

	candidate := v.Candidate("pkg-1", "amira", testWeekStart.AddDays(2), model.ShiftDay, 0, 0)

	// Before any week is loaded the check reports unavailable, never a breach
	result := v.Validate(context.Background(), candidate)
	assert.False(t, result.IsValid)
	assert.Empty(t, result.Violations)

	// Once the operator's week is loaded the same placement validates
	require.NoError(t, sess.Switch(context.Background(), "pkg-1", testWeekStart))
	result = v.Validate(context.Background(), candidate)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
}

func TestValidateRecoversViaRefresh(t *testing.T) {
	src := &fakeSource{
		in:       rules.Input{Schedule: testSchedule(), Now: testWeekStart.At(0)},
		inputErr: errors.New("stale snapshot"),
	}
	v := newTestValidator(src)

	candidate := v.Candidate("pkg-1", "amira", testWeekStart, model.ShiftDay, 0, 0)
	result := v.Validate(context.Background(), candidate)

	assert.True(t, result.IsValid)
	assert.Equal(t, 1, src.refreshes)
}
