package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lox/runsafetonight/internal/metrics"
)

// BucketKey names the TTL window containing now, so all instances agree
// on which snapshot is current.
func BucketKey(kind string, now time.Time, ttl time.Duration) string {
	if ttl <= 0 {
		return fmt.Sprintf("%s:%d", kind, now.UnixNano())
	}
	return fmt.Sprintf("%s:%d", kind, now.Truncate(ttl).Unix())
}

// Snapshots wraps a Cache with compute-on-miss for rendered payloads.
// Cache failures are logged and the payload is computed directly.
type Snapshots struct {
	cache  Cache
	logger *slog.Logger
}

func NewSnapshots(c Cache, logger *slog.Logger) *Snapshots {
	return &Snapshots{cache: c, logger: logger.With("component", "cache", "backend", c.Name())}
}

// Cache returns the underlying store, for health checks.
func (s *Snapshots) Cache() Cache {
	return s.cache
}

// Get returns the payload for kind in the window containing now, computing
// and storing it on a miss.
func (s *Snapshots) Get(ctx context.Context, kind string, now time.Time, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error) {
	key := BucketKey(kind, now, ttl)

	if ttl > 0 {
		data, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
			s.logger.Warn("cache get failed", "key", key, "error", err)
		case ok:
			metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return data, nil
		default:
			metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		}
	}

	data, err := compute()
	if err != nil {
		return nil, err
	}

	if ttl > 0 {
		if err := s.cache.Set(ctx, key, data, ttl); err != nil {
			s.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return data, nil
}
