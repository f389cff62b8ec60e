// Package violations maintains the operator-facing list of rule breaches.
// Violations arrive from two origins: "standing" violations recomputed from
// the persisted schedule on every reload, and "recent" violations attached
// by individual commit responses. The two buckets are merged and
// deduplicated through the one canonical key derivation in the model
// package so the same underlying condition is never shown twice.
package violations

import (
	"sync"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// DefaultPresentationCap is how many violations are shown outside show-all mode
const DefaultPresentationCap = 8

// Aggregator collects, deduplicates and caps violations for presentation
type Aggregator struct {
	mu       sync.Mutex
	standing []model.RuleViolation
	recent   []model.RuleViolation
	showAll  bool
	cap      int
}

// NewAggregator creates an aggregator with the given presentation cap.
// A cap of zero or less falls back to the default.
func NewAggregator(presentationCap int) *Aggregator {
	if presentationCap <= 0 {
		presentationCap = DefaultPresentationCap
	}
	return &Aggregator{cap: presentationCap}
}

// SetStanding replaces the standing bucket with the violations recomputed
// from the current persisted schedule.
func (a *Aggregator) SetStanding(violations []model.RuleViolation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.standing = model.DedupViolations(violations)
}

// AddRecent appends violations attached by a commit response
func (a *Aggregator) AddRecent(violations ...model.RuleViolation) {
	if len(violations) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = model.DedupViolations(append(a.recent, violations...))
}

// DismissOne removes the entry at the given index of the visible list from
// display. Only recent entries can be dismissed: standing violations will
// reappear on the next reload until the underlying condition is resolved by
// an actual schedule change, so dismissing them would only mislead. The
// call never mutates schedule state.
func (a *Aggregator) DismissOne(index int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	visible := a.visibleLocked()
	if index < 0 || index >= len(visible) {
		return false
	}
	key := model.ViolationKey(visible[index])
	for i, v := range a.recent {
		if model.ViolationKey(v) == key {
			a.recent = append(a.recent[:i], a.recent[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAll empties the recent bucket. Standing violations persist until the
// schedule itself changes.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = nil
}

// Reset drops both buckets. Used when the session switches package or week,
// since violations are only meaningful relative to the schedule they were
// computed against.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.standing = nil
	a.recent = nil
}

// ToggleShowAll flips between "recent only" and "all standing + recent"
// and returns the new mode.
func (a *Aggregator) ToggleShowAll() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showAll = !a.showAll
	return a.showAll
}

// Visible returns the deduplicated violations to display: the recent bucket
// capped at the presentation limit by default, or everything (standing
// first, then recent) in show-all mode.
func (a *Aggregator) Visible() []model.RuleViolation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visibleLocked()
}

func (a *Aggregator) visibleLocked() []model.RuleViolation {
	if a.showAll {
		merged := make([]model.RuleViolation, 0, len(a.standing)+len(a.recent))
		merged = append(merged, a.standing...)
		merged = append(merged, a.recent...)
		return model.DedupViolations(merged)
	}
	visible := model.DedupViolations(a.recent)
	if len(visible) > a.cap {
		visible = visible[:a.cap]
	}
	return visible
}

// Standing returns a copy of the standing bucket (for digests and the CLI
// week view).
func (a *Aggregator) Standing() []model.RuleViolation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.RuleViolation(nil), a.standing...)
}
