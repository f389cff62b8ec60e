package placement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/db"
)

// DragState is the protocol's current phase
type DragState int

const (
	StateIdle DragState = iota
	StateDragging
	StatePendingValidation
)

func (s DragState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDragging:
		return "Dragging"
	case StatePendingValidation:
		return "PendingValidation"
	}
	return fmt.Sprintf("DragState(%d)", int(s))
}

// SlotRef identifies a drop target: one date x shift type
type SlotRef struct {
	Date      model.Date
	ShiftType model.ShiftType
}

// Source records where a dragged carer token was picked up
type Source struct {
	FromRoster bool
	Slot       SlotRef // meaningful when !FromRoster
}

// Outcome classifies how a drop resolved
type Outcome int

const (
	// OutcomeCommitted: the placement was valid and CreateEntry succeeded
	OutcomeCommitted Outcome = iota
	// OutcomeRejected: the placement was invalid (or validation did not
	// answer in time); the token returns to its source position
	OutcomeRejected
	// OutcomeStale: a newer drag superseded this one before it resolved;
	// the result must not be displayed
	OutcomeStale
)

// Resolution is the terminal report of one drop
type Resolution struct {
	Outcome Outcome
	Result  model.ValidationResult
	Entry   *model.ShiftEntry // set on OutcomeCommitted
	Err     error             // commit error on a valid placement, if any
}

// Committer persists a validated placement
type Committer interface {
	CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*db.CreateEntryResult, error)
}

// DefaultValidationTimeout bounds how long a drop waits for validation
const DefaultValidationTimeout = 2 * time.Second

// Protocol is the drag-and-drop placement state machine:
//
//	Idle -> Dragging -> PendingValidation -> (Valid | Invalid) -> Idle
//
// Validation itself fails open for advisory purposes, but the commit path
// here is fail-closed: no validator answer within the timeout means no
// commit, reported as a rejection with no violations attached. Stale
// responses are discarded via a per-slot sequence number, so two rapid
// drags over the same slot can never display the older result.
type Protocol struct {
	validator *Validator
	committer Committer
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	state   DragState
	carerID string
	source  Source
	gen     uint64
	seq     map[SlotRef]uint64
}

// NewProtocol creates an idle drag protocol
func NewProtocol(validator *Validator, committer Committer, timeout time.Duration, logger *zap.Logger) *Protocol {
	if timeout <= 0 {
		timeout = DefaultValidationTimeout
	}
	return &Protocol{
		validator: validator,
		committer: committer,
		timeout:   timeout,
		logger:    logger,
		seq:       make(map[SlotRef]uint64),
	}
}

// State returns the current phase
func (p *Protocol) State() DragState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Begin starts a drag for the given carer. Beginning while an earlier
// validation is still pending supersedes it; the earlier result will be
// discarded when it arrives.
func (p *Protocol) Begin(carerID string, source Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateDragging
	p.carerID = carerID
	p.source = source
	p.gen++
}

// Cancel ends a drag with no validation call (drop outside any slot)
func (p *Protocol) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	p.carerID = ""
}

// Drop resolves a drag over the target slot: validate the implied
// candidate, then commit only a valid placement. The terminal transition
// always returns the protocol to Idle; no half-committed drag survives
// across interactions.
func (p *Protocol) Drop(ctx context.Context, packageID string, slot SlotRef) Resolution {
	p.mu.Lock()
	if p.state != StateDragging {
		p.mu.Unlock()
		return Resolution{Outcome: OutcomeRejected, Err: fmt.Errorf("no drag in progress")}
	}
	carerID := p.carerID
	p.state = StatePendingValidation
	p.seq[slot]++
	mySeq := p.seq[slot]
	myGen := p.gen
	p.mu.Unlock()

	candidate := p.validator.Candidate(packageID, carerID, slot.Date, slot.ShiftType, 0, 0)

	vctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resultCh := make(chan model.ValidationResult, 1)
	go func() {
		resultCh <- p.validator.Validate(vctx, candidate)
	}()

	var result model.ValidationResult
	timedOut := false
	select {
	case result = <-resultCh:
	case <-vctx.Done():
		// No answer in time is not a rule violation; it is "no commit".
		timedOut = true
		result = model.ValidationResult{IsValid: false, Violations: []model.RuleViolation{}, Warnings: []model.RuleViolation{}}
	}

	p.mu.Lock()
	// A newer Begin or a newer drop on the same slot supersedes this one.
	stale := p.seq[slot] != mySeq || p.gen != myGen
	if !stale {
		p.state = StateIdle
		p.carerID = ""
	}
	p.mu.Unlock()

	if stale {
		p.logger.Debug("Discarding stale drag validation",
			zap.String("date", slot.Date.String()),
			zap.String("shift_type", string(slot.ShiftType)),
			zap.Uint64("sequence", mySeq))
		return Resolution{Outcome: OutcomeStale}
	}

	if timedOut {
		p.logger.Warn("Drag validation timed out, rejecting drop",
			zap.String("carer_id", carerID),
			zap.String("date", slot.Date.String()))
	}

	if !result.IsValid {
		return Resolution{Outcome: OutcomeRejected, Result: result}
	}

	created, err := p.committer.CreateEntry(ctx, candidate)
	if err != nil {
		return Resolution{Outcome: OutcomeRejected, Result: result, Err: err}
	}
	return Resolution{Outcome: OutcomeCommitted, Result: result, Entry: &created.Entry}
}
