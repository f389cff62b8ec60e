// Package schedule owns the client-side weekly schedule aggregate. One
// Session holds exactly one package+week at a time; switching away discards
// the aggregate outright and clears the violation buckets, and every reload
// replaces the schedule wholesale with the server's view. Local patching is
// deliberately impossible: the rule engine's correctness depends on only
// ever evaluating server-confirmed state.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/core/violations"
)

// Loader fetches server-confirmed weekly schedules
type Loader interface {
	GetWeeklySchedule(ctx context.Context, packageID string, weekStart model.Date) (*model.WeeklySchedule, error)
}

// Session is the schedule store for one scheduling session. Sessions are
// independent; tests construct several side by side.
type Session struct {
	loader     Loader
	engine     *rules.Engine
	violations *violations.Aggregator
	logger     *zap.Logger
	now        func() time.Time

	mu         sync.Mutex
	packageID  string
	weekStart  model.Date
	generation uint64
	current    *model.WeeklySchedule
	prior      *model.WeeklySchedule
}

// NewSession creates an empty session. Call Switch to load a week.
func NewSession(loader Loader, engine *rules.Engine, agg *violations.Aggregator, logger *zap.Logger) *Session {
	return &Session{
		loader:     loader,
		engine:     engine,
		violations: agg,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock injects the evaluation clock; tests pin it for determinism
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Switch points the session at a new package+week. The old aggregate and
// both violation buckets are discarded before anything is fetched; any
// reload still in flight for the old view is invalidated by the generation
// bump and its response will be ignored when it arrives.
func (s *Session) Switch(ctx context.Context, packageID string, weekStart model.Date) error {
	s.mu.Lock()
	s.packageID = packageID
	s.weekStart = model.MondayOf(weekStart)
	s.generation++
	gen := s.generation
	s.current = nil
	s.prior = nil
	s.mu.Unlock()

	s.violations.Reset()

	s.logger.Debug("Switching schedule session",
		zap.String("package_id", packageID),
		zap.String("week_start", s.weekStart.String()),
		zap.Uint64("generation", gen))

	return s.load(ctx, gen)
}

// Refresh reloads the current package+week from persistence and recomputes
// the standing violations. A stale refresh (one that started before a
// Switch) is discarded.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.packageID == "" {
		s.mu.Unlock()
		return fmt.Errorf("no package selected")
	}
	gen := s.generation
	s.mu.Unlock()

	return s.load(ctx, gen)
}

func (s *Session) load(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	packageID, weekStart := s.packageID, s.weekStart
	s.mu.Unlock()

	current, err := s.loader.GetWeeklySchedule(ctx, packageID, weekStart)
	if err != nil {
		return fmt.Errorf("failed to load weekly schedule: %w", err)
	}

	// Prior week feeds the lookback rules. Missing lookback data degrades
	// those rules to no-ops rather than failing the whole reload.
	prior, err := s.loader.GetWeeklySchedule(ctx, packageID, weekStart.AddDays(-7))
	if err != nil {
		s.logger.Warn("Prior week unavailable, lookback rules disabled for this view",
			zap.String("package_id", packageID),
			zap.Error(err))
		prior = nil
	}

	s.mu.Lock()
	if s.generation != gen {
		currentGen := s.generation
		s.mu.Unlock()
		s.logger.Debug("Discarding stale schedule load",
			zap.Uint64("loaded_generation", gen),
			zap.Uint64("current_generation", currentGen))
		return nil
	}
	s.current = current
	s.prior = prior
	in := rules.Input{Schedule: current, PriorWeek: prior, Now: s.now()}
	standing := s.engine.EvaluateSchedule(in)
	// Publish standing violations under the session lock so a concurrent
	// Switch cannot interleave its Reset between the check and the set.
	s.violations.SetStanding(standing)
	s.mu.Unlock()

	s.logger.Debug("Schedule loaded",
		zap.String("package_id", packageID),
		zap.String("week_start", weekStart.String()),
		zap.Int("entries", len(current.AllEntries())),
		zap.Int("standing_violations", len(standing)))
	return nil
}

// Current returns the loaded schedule snapshot, or nil before the first
// successful load.
func (s *Session) Current() *model.WeeklySchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Input builds a rule engine input from the current snapshots
func (s *Session) Input() (rules.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return rules.Input{}, fmt.Errorf("no schedule loaded")
	}
	return rules.Input{Schedule: s.current, PriorWeek: s.prior, Now: s.now()}, nil
}

// Generation returns the session generation, bumped on every Switch
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// PackageID returns the selected package id ("" before the first Switch)
func (s *Session) PackageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packageID
}

// WeekStart returns the Monday of the selected week
func (s *Session) WeekStart() model.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekStart
}
