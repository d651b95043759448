// Package cache holds rendered API payloads between requests so every
// instance serves the same snapshot for a TTL window.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache stores opaque payloads with an expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Name() string
}

// New returns a valkey-backed cache when addr is set and reachable, and an
// in-memory cache otherwise.
func New(addr string, logger *slog.Logger) Cache {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		logger.Info("valkey address not set, using memory cache")
		return NewMemory()
	}

	opt, err := clientOptions(addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return NewMemory()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		client.Close()
		return NewMemory()
	}

	logger.Info("valkey cache enabled", "addr", addr)
	return NewValkey(client, "runsafe")
}

func clientOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
