package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/runsafetonight/internal/models"
)

func (s *Store) RecordReadiness(ctx context.Context, sub models.ReadinessSubmission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readiness_submissions (score, tier, created_at)
		VALUES (?, ?, ?)
	`, sub.Score, sub.Tier, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert readiness submission: %w", err)
	}
	return nil
}

// ReadinessSummarySince aggregates submissions created at or after since.
func (s *Store) ReadinessSummarySince(ctx context.Context, since time.Time) (models.ReadinessSummary, error) {
	summary := models.ReadinessSummary{ByTier: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tier, COUNT(*), AVG(score)
		FROM readiness_submissions
		WHERE created_at >= ?
		GROUP BY tier
	`, since.UTC())
	if err != nil {
		return summary, err
	}
	defer rows.Close()

	var total float64
	for rows.Next() {
		var tier string
		var n int
		var avg float64
		if err := rows.Scan(&tier, &n, &avg); err != nil {
			return summary, err
		}
		summary.ByTier[tier] = n
		summary.Count += n
		total += avg * float64(n)
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}
	if summary.Count > 0 {
		summary.Average = total / float64(summary.Count)
	}
	return summary, nil
}
