package db

import (
	"context"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// RotaStore is the persistence boundary for one package's weekly rota.
// Implemented by the Postgres store (server side) and by the HTTP rota
// client (operator side); the orchestration layer only sees this interface.
type RotaStore interface {
	// GetWeeklySchedule returns the server-confirmed schedule for the week
	// containing weekStart, normalized to its Monday, with the
	// competency-scoped roster attached.
	GetWeeklySchedule(ctx context.Context, packageID string, weekStart model.Date) (*model.WeeklySchedule, error)

	// ValidateEntry runs the rule engine against the candidate without
	// writing anything.
	ValidateEntry(ctx context.Context, candidate model.ShiftEntry) (*model.ValidationResult, error)

	// CreateEntry commits the candidate. Blocking violations return a
	// ValidationError; a duplicate submission of the same placement must
	// not double-create.
	CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*CreateEntryResult, error)

	// ConfirmEntry flips IsConfirmed. NotFoundError when the entry was
	// deleted concurrently; confirming an already-confirmed entry is a
	// benign no-op.
	ConfirmEntry(ctx context.Context, entryID string) (*model.ShiftEntry, error)

	// DeleteEntry removes one entry, NotFoundError under the same race.
	DeleteEntry(ctx context.Context, entryID string) error

	// BatchDeleteEntries attempts every id and reports per-id outcomes.
	BatchDeleteEntries(ctx context.Context, entryIDs []string) (*BatchDeleteResult, error)
}

// PackageDirectory is the read-only care-package collaborator
type PackageDirectory interface {
	GetPackage(ctx context.Context, packageID string) (*model.CarePackage, error)
	ListPackages(ctx context.Context) ([]model.CarePackage, error)
}
