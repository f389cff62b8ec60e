package violations

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

func violation(rule model.RuleCode, carerID, message string) model.RuleViolation {
	return model.RuleViolation{
		Rule:     rule,
		CarerID:  carerID,
		Message:  message,
		Severity: model.SeverityError,
	}
}

func TestVisibleDefaultsToRecentOnly(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{violation(model.RuleWeeklyHourLimit, "c1", "standing")})
	agg.AddRecent(violation(model.RuleRestPeriod, "c2", "recent"))

	visible := agg.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "recent", visible[0].Message)
}

func TestToggleShowAllMergesStandingFirst(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{violation(model.RuleWeeklyHourLimit, "c1", "standing")})
	agg.AddRecent(violation(model.RuleRestPeriod, "c2", "recent"))

	assert.True(t, agg.ToggleShowAll())
	visible := agg.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "standing", visible[0].Message)
	assert.Equal(t, "recent", visible[1].Message)

	assert.False(t, agg.ToggleShowAll())
	assert.Len(t, agg.Visible(), 1)
}

func TestSameConditionNeverShownTwice(t *testing.T) {
	// The same underlying condition arrives both from the schedule scan and
	// from a commit response; one visible entry results.
	v := violation(model.RuleWeeklyHourLimit, "c1", "over the limit")
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{v})
	agg.AddRecent(v)

	agg.ToggleShowAll()
	assert.Len(t, agg.Visible(), 1)
}

func TestPresentationCap(t *testing.T) {
	agg := NewAggregator(0)
	for i := 0; i < DefaultPresentationCap+3; i++ {
		agg.AddRecent(violation(model.RuleRestPeriod, fmt.Sprintf("c%d", i), fmt.Sprintf("m%d", i)))
	}

	assert.Len(t, agg.Visible(), DefaultPresentationCap)

	// Show-all mode is never capped
	agg.ToggleShowAll()
	assert.Len(t, agg.Visible(), DefaultPresentationCap+3)
}

func TestCustomCap(t *testing.T) {
	agg := NewAggregator(2)
	agg.AddRecent(
		violation(model.RuleRestPeriod, "c1", "m1"),
		violation(model.RuleRestPeriod, "c2", "m2"),
		violation(model.RuleRestPeriod, "c3", "m3"),
	)
	assert.Len(t, agg.Visible(), 2)
}

func TestDismissOneOnlyRemovesRecent(t *testing.T) {
	standing := violation(model.RuleWeeklyHourLimit, "c1", "standing")
	recent := violation(model.RuleRestPeriod, "c2", "recent")

	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{standing})
	agg.AddRecent(recent)
	agg.ToggleShowAll()

	// Dismissing the standing entry at index 0 is refused
	assert.False(t, agg.DismissOne(0))
	assert.Len(t, agg.Visible(), 2)

	// Dismissing the recent entry at index 1 works
	assert.True(t, agg.DismissOne(1))
	visible := agg.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "standing", visible[0].Message)
}

func TestDismissOneOutOfRange(t *testing.T) {
	agg := NewAggregator(0)
	agg.AddRecent(violation(model.RuleRestPeriod, "c1", "m"))

	assert.False(t, agg.DismissOne(-1))
	assert.False(t, agg.DismissOne(5))
	assert.Len(t, agg.Visible(), 1)
}

func TestClearAllKeepsStanding(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{violation(model.RuleWeeklyHourLimit, "c1", "standing")})
	agg.AddRecent(violation(model.RuleRestPeriod, "c2", "recent"))

	agg.ClearAll()
	assert.Empty(t, agg.Visible())

	// Standing violations persist until the schedule itself changes
	agg.ToggleShowAll()
	assert.Len(t, agg.Visible(), 1)
}

func TestStandingReplacedWholesaleOnReload(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{
		violation(model.RuleWeeklyHourLimit, "c1", "old"),
		violation(model.RuleRestPeriod, "c2", "old2"),
	})
	agg.SetStanding([]model.RuleViolation{violation(model.RuleMinCompetentStaff, "", "new")})

	standing := agg.Standing()
	require.Len(t, standing, 1)
	assert.Equal(t, "new", standing[0].Message)
}

func TestResetDropsBothBuckets(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetStanding([]model.RuleViolation{violation(model.RuleWeeklyHourLimit, "c1", "s")})
	agg.AddRecent(violation(model.RuleRestPeriod, "c2", "r"))

	agg.Reset()
	assert.Empty(t, agg.Visible())
	agg.ToggleShowAll()
	assert.Empty(t, agg.Visible())
}
