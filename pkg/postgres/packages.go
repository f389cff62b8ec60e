package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/db"
)

// Shift duration in minutes, accounting for night shifts that cross
// midnight. Mirrors the in-memory hour arithmetic.
const durationExpr = `
	CASE WHEN e.end_minutes > e.start_minutes
	     THEN e.end_minutes - e.start_minutes
	     ELSE e.end_minutes - e.start_minutes + 1440
	END`

// GetPackage retrieves one care package with its staffing stats
func (s *Store) GetPackage(ctx context.Context, packageID string) (*model.CarePackage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.postcode, p.is_active, p.target_hours,
		       (SELECT COUNT(*) FROM package_assignment pa WHERE pa.package_id = p.id),
		       COALESCE((SELECT SUM(`+durationExpr+`) FROM rota_entry e
		                 WHERE e.package_id = p.id), 0)
		FROM care_package p
		WHERE p.id = $1
	`, packageID)

	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &db.NotFoundError{Resource: "care package", ID: packageID}
		}
		return nil, err
	}
	return pkg, nil
}

// ListPackages retrieves all care packages with their staffing stats
func (s *Store) ListPackages(ctx context.Context) ([]model.CarePackage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.postcode, p.is_active, p.target_hours,
		       (SELECT COUNT(*) FROM package_assignment pa WHERE pa.package_id = p.id),
		       COALESCE((SELECT SUM(`+durationExpr+`) FROM rota_entry e
		                 WHERE e.package_id = p.id), 0)
		FROM care_package p
		ORDER BY p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query care packages: %w", err)
	}
	defer rows.Close()

	var packages []model.CarePackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating care packages: %w", err)
	}
	return packages, nil
}

// scanPackage maps a package row: scheduled hours are the sum of every
// entry's duration, total hours are the package's weekly staffing target.
func scanPackage(row rowScanner) (*model.CarePackage, error) {
	var pkg model.CarePackage
	var targetHours int
	var scheduledMinutes int64
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Postcode, &pkg.IsActive,
		&targetHours, &pkg.CarerCount, &scheduledMinutes); err != nil {
		return nil, fmt.Errorf("failed to scan care package: %w", err)
	}
	pkg.ScheduledHours = float64(scheduledMinutes) / 60
	pkg.TotalHours = float64(targetHours)
	return &pkg, nil
}
