// Package stats periodically summarises Night Crew signups and readiness
// submissions into logs and gauges.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/lox/runsafetonight/internal/metrics"
	"github.com/lox/runsafetonight/internal/models"
)

// Source is the subset of the store the reporter reads.
type Source interface {
	CountNightCrewMembers(ctx context.Context) (int, error)
	ReadinessSummarySince(ctx context.Context, since time.Time) (models.ReadinessSummary, error)
}

const (
	DefaultInterval = time.Hour
	window          = 24 * time.Hour
)

type Reporter struct {
	src      Source
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

func NewReporter(src Source, interval time.Duration, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{
		src:      src,
		logger:   logger.With("component", "stats"),
		interval: interval,
		now:      time.Now,
	}
}

// Run reports immediately and then every interval until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	r.Report(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reporter shutting down")
			return nil
		case <-ticker.C:
			r.Report(ctx)
		}
	}
}

// Report takes one reading. Failures are logged and skipped.
func (r *Reporter) Report(ctx context.Context) {
	members, err := r.src.CountNightCrewMembers(ctx)
	if err != nil {
		r.logger.Warn("count nightcrew members failed", "error", err)
		return
	}
	summary, err := r.src.ReadinessSummarySince(ctx, r.now().Add(-window))
	if err != nil {
		r.logger.Warn("readiness summary failed", "error", err)
		return
	}

	metrics.NightCrewMembers.Set(float64(members))
	metrics.ReadinessDaily.WithLabelValues("count").Set(float64(summary.Count))
	metrics.ReadinessDaily.WithLabelValues("average").Set(summary.Average)

	r.logger.Info("daily stats",
		"nightcrew_members", members,
		"readiness_checks", summary.Count,
		"readiness_average", summary.Average,
		"readiness_by_tier", summary.ByTier,
	)
}
