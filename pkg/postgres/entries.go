package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/db"
)

// querier is satisfied by both the pool and a transaction, so the week
// loader can run inside CreateEntry's transaction as well as standalone.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GetWeeklySchedule retrieves the confirmed schedule for the week containing
// weekStart, normalized to its Monday, with the competency-scoped roster.
func (s *Store) GetWeeklySchedule(ctx context.Context, packageID string, weekStart model.Date) (*model.WeeklySchedule, error) {
	return s.loadWeek(ctx, s.pool, packageID, weekStart)
}

func (s *Store) loadWeek(ctx context.Context, q querier, packageID string, weekStart model.Date) (*model.WeeklySchedule, error) {
	schedule := model.NewWeeklySchedule(packageID, weekStart)

	rows, err := q.Query(ctx, `
		SELECT id, package_id, carer_id, shift_date, shift_type, start_minutes, end_minutes, is_confirmed
		FROM rota_entry
		WHERE package_id = $1 AND shift_date >= $2 AND shift_date <= $3
		ORDER BY shift_date, shift_type, created_at
	`, packageID, schedule.WeekStart.String(), schedule.WeekStart.AddDays(6).String())
	if err != nil {
		return nil, fmt.Errorf("failed to query rota entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		schedule.AddEntry(entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rota entries: %w", err)
	}

	packageCarers, otherCarers, err := s.loadRoster(ctx, q, packageID)
	if err != nil {
		return nil, err
	}
	schedule.PackageCarers = packageCarers
	schedule.OtherCarers = otherCarers

	return schedule, nil
}

// rowScanner lets scanEntry serve both Query rows and QueryRow
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.ShiftEntry, error) {
	var entry model.ShiftEntry
	var shiftDate time.Time
	var shiftType string
	var startMinutes, endMinutes int
	if err := row.Scan(&entry.ID, &entry.PackageID, &entry.CarerID, &shiftDate, &shiftType, &startMinutes, &endMinutes, &entry.IsConfirmed); err != nil {
		return model.ShiftEntry{}, fmt.Errorf("failed to scan rota entry: %w", err)
	}
	entry.Date = model.DateOf(shiftDate)
	entry.ShiftType = model.ShiftType(shiftType)
	entry.StartTime = model.TimeOfDay(startMinutes)
	entry.EndTime = model.TimeOfDay(endMinutes)
	return entry, nil
}

// evaluate runs the rule engine against the candidate with the prior week
// attached for the lookback rules.
func (s *Store) evaluate(ctx context.Context, q querier, candidate model.ShiftEntry) ([]model.RuleViolation, error) {
	schedule, err := s.loadWeek(ctx, q, candidate.PackageID, candidate.Date)
	if err != nil {
		return nil, err
	}
	prior, err := s.loadWeek(ctx, q, candidate.PackageID, schedule.WeekStart.AddDays(-7))
	if err != nil {
		return nil, err
	}

	in := rules.Input{Schedule: schedule, PriorWeek: prior, Now: time.Now().UTC()}
	return model.DedupViolations(s.engine.Evaluate(in, candidate)), nil
}

// ValidateEntry runs the rule check for a candidate without writing anything
func (s *Store) ValidateEntry(ctx context.Context, candidate model.ShiftEntry) (*model.ValidationResult, error) {
	violations, err := s.evaluate(ctx, s.pool, candidate)
	if err != nil {
		return nil, err
	}
	result := model.ResultFromViolations(violations)
	return &result, nil
}

// CreateEntry commits a candidate placement. The rule check and the insert
// run in one transaction so two operators cannot both pass validation and
// both commit into the same conflict.
func (s *Store) CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*db.CreateEntryResult, error) {
	if !candidate.ShiftType.IsValid() {
		return nil, fmt.Errorf("invalid shift type %q", candidate.ShiftType)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	violations, err := s.evaluate(ctx, tx, candidate)
	if err != nil {
		return nil, err
	}
	errors, warnings := model.SplitBySeverity(violations)
	if len(errors) > 0 {
		return nil, &db.ValidationError{Violations: errors, Warnings: warnings}
	}

	entry := candidate
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO rota_entry (id, package_id, carer_id, shift_date, shift_type, start_minutes, end_minutes, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (package_id, carer_id, shift_date, shift_type) DO NOTHING
	`, entry.ID, entry.PackageID, entry.CarerID, entry.Date.String(), string(entry.ShiftType),
		int(entry.StartTime), int(entry.EndTime), entry.IsConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rota entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Duplicate submission of the same placement; return the stored
		// entry instead of double-creating.
		row := tx.QueryRow(ctx, `
			SELECT id, package_id, carer_id, shift_date, shift_type, start_minutes, end_minutes, is_confirmed
			FROM rota_entry
			WHERE package_id = $1 AND carer_id = $2 AND shift_date = $3 AND shift_type = $4
		`, entry.PackageID, entry.CarerID, entry.Date.String(), string(entry.ShiftType))
		existing, err := scanEntry(row)
		if err != nil {
			return nil, err
		}
		entry = existing
		s.logger.Debug("Duplicate placement submission, returning existing entry",
			zap.String("entryId", entry.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &db.CreateEntryResult{Entry: entry, Warnings: warnings}, nil
}

// ConfirmEntry flips the confirmation flag. Confirming an already-confirmed
// entry is a no-op; a missing entry means it was deleted concurrently.
func (s *Store) ConfirmEntry(ctx context.Context, entryID string) (*model.ShiftEntry, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE rota_entry
		SET is_confirmed = TRUE
		WHERE id = $1
		RETURNING id, package_id, carer_id, shift_date, shift_type, start_minutes, end_minutes, is_confirmed
	`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &db.NotFoundError{Resource: "rota entry", ID: entryID}
		}
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes one entry
func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rota_entry WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete rota entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &db.NotFoundError{Resource: "rota entry", ID: entryID}
	}
	return nil
}

// BatchDeleteEntries attempts every id independently and reports per-id
// outcomes. One missing entry never aborts the rest of the batch.
func (s *Store) BatchDeleteEntries(ctx context.Context, entryIDs []string) (*db.BatchDeleteResult, error) {
	result := &db.BatchDeleteResult{}
	for _, id := range entryIDs {
		if err := s.DeleteEntry(ctx, id); err != nil {
			result.Errors = append(result.Errors, db.BatchDeleteError{EntryID: id, Error: err.Error()})
			continue
		}
		result.DeletedCount++
	}
	return result, nil
}
