// Package probe waits for a deployment to report healthy.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/runsafetonight/internal/httputil"
)

// Health mirrors the /health response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type Prober struct {
	client *http.Client
	logger *slog.Logger

	// MaxElapsed bounds the whole wait. Zero means no limit other than ctx.
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func New(client *http.Client, logger *slog.Logger) *Prober {
	if client == nil {
		client = httputil.NewClient(httputil.DefaultTimeout)
	}
	return &Prober{
		client:          client,
		logger:          logger.With("component", "probe"),
		MaxElapsed:      2 * time.Minute,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     15 * time.Second,
	}
}

// Wait polls baseURL/health until it reports "ok", backing off
// exponentially between attempts.
func (p *Prober) Wait(ctx context.Context, baseURL string) (*Health, error) {
	target, err := healthURL(baseURL)
	if err != nil {
		return nil, err
	}

	var health *Health
	attempt := 0
	operation := func() error {
		attempt++
		h, err := p.check(ctx, target)
		if err != nil {
			p.logger.Info("deployment not ready", "url", target, "attempt", attempt, "error", err)
			return err
		}
		health = h
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = p.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", target, err)
	}

	p.logger.Info("deployment ready", "url", target, "attempts", attempt)
	return health, nil
}

func (p *Prober) check(ctx context.Context, target string) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get health: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("status %d: decode health: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || h.Status != "ok" {
		return nil, fmt.Errorf("status %d: %s %s", resp.StatusCode, h.Status, failedChecks(h.Checks))
	}
	return &h, nil
}

func failedChecks(checks map[string]string) string {
	var failed []string
	for name, state := range checks {
		if state != "ok" {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return "(" + strings.Join(failed, ", ") + ")"
}

func healthURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/health"
	u.RawQuery = ""
	return u.String(), nil
}
