package postgres

import (
	"context"
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// loadRoster returns the carers assigned to the package and the rest of the
// organisation, each with their competency ratings scoped to this package.
func (s *Store) loadRoster(ctx context.Context, q querier, packageID string) (packageCarers, otherCarers []model.Carer, err error) {
	rows, err := q.Query(ctx, `
		SELECT c.id, c.name, c.email,
		       (pa.carer_id IS NOT NULL) AS assigned
		FROM carer c
		LEFT JOIN package_assignment pa
		       ON pa.carer_id = c.id AND pa.package_id = $1
		ORDER BY c.name, c.id
	`, packageID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query carers: %w", err)
	}
	defer rows.Close()

	assigned := make(map[string]bool)
	byID := make(map[string]*model.Carer)
	var order []string
	for rows.Next() {
		var c model.Carer
		var isAssigned bool
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &isAssigned); err != nil {
			return nil, nil, fmt.Errorf("failed to scan carer: %w", err)
		}
		assigned[c.ID] = isAssigned
		byID[c.ID] = &c
		order = append(order, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating carers: %w", err)
	}

	ratingRows, err := q.Query(ctx, `
		SELECT carer_id, task_id, level
		FROM competency_rating
		WHERE package_id = $1
		ORDER BY carer_id, task_id
	`, packageID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query competency ratings: %w", err)
	}
	defer ratingRows.Close()

	for ratingRows.Next() {
		var carerID, taskID, level string
		if err := ratingRows.Scan(&carerID, &taskID, &level); err != nil {
			return nil, nil, fmt.Errorf("failed to scan competency rating: %w", err)
		}
		if c, ok := byID[carerID]; ok {
			c.Ratings = append(c.Ratings, model.CompetencyRating{
				TaskID: taskID,
				Level:  model.CompetencyLevel(level),
			})
		}
	}
	if err := ratingRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating competency ratings: %w", err)
	}

	for _, id := range order {
		c := byID[id]
		c.PackageCompetency = summariseCompetency(*c)
		if assigned[id] {
			packageCarers = append(packageCarers, *c)
		} else {
			otherCarers = append(otherCarers, *c)
		}
	}
	return packageCarers, otherCarers, nil
}

// summariseCompetency precomputes the per-package competency summary so
// consumers do not re-derive it from the raw ratings.
func summariseCompetency(c model.Carer) *model.PackageCompetency {
	summary := &model.PackageCompetency{
		TotalTaskCount: len(c.Ratings),
		HasNoTasks:     len(c.Ratings) == 0,
	}
	for _, r := range c.Ratings {
		if r.Level.MeetsCompetent() {
			summary.CompetentTaskCount++
		}
	}
	summary.IsPackageCompetent = !summary.HasNoTasks &&
		summary.CompetentTaskCount == summary.TotalTaskCount
	return summary
}
