// Package client fetches the conditions and pulse payloads from a deployed
// site, substituting locally generated values whenever a fetch fails.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/httputil"
	"github.com/lox/runsafetonight/internal/metrics"
	"github.com/lox/runsafetonight/internal/pulse"
	"github.com/lox/runsafetonight/internal/random"
)

const (
	EndpointConditions = "conditions"
	EndpointPulse      = "pulse"

	maxBodyBytes = 1 << 20
)

// Source says where a payload came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Rand       random.Source
	Location   string
	// TimeLocation is the zone fallback values are generated in.
	TimeLocation *time.Location
	Now          func() time.Time
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location

	breakers map[string]*gobreaker.CircuitBreaker[[]byte]

	genMu      sync.Mutex
	conditions *conditions.Generator
	pulse      *pulse.Generator
}

func New(opts Options, logger *slog.Logger) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = httputil.NewClient(httputil.DefaultTimeout)
	}
	if opts.Rand == nil {
		opts.Rand = random.Global()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TimeLocation == nil {
		opts.TimeLocation = time.Local
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTPClient,
		logger:     logger.With("component", "client"),
		now:        opts.Now,
		loc:        opts.TimeLocation,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		conditions: conditions.NewGenerator(opts.Rand, opts.Location),
		pulse:      pulse.NewGenerator(opts.Rand),
	}
	for _, endpoint := range []string{EndpointConditions, EndpointPulse} {
		c.breakers[endpoint] = newBreaker(endpoint)
	}
	return c
}

// newBreaker opens after repeated failures so a dead deployment is not hit
// on every load. An open breaker is just another failure to the caller.
func newBreaker(endpoint string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "runsafe-" + endpoint,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// Conditions returns the remote conditions report, or a locally generated
// one if the request fails for any reason.
func (c *Client) Conditions(ctx context.Context) (conditions.Report, Source) {
	body, err := c.fetch(ctx, EndpointConditions)
	if err == nil {
		var report conditions.Report
		if err = json.Unmarshal(body, &report); err == nil {
			return report, SourceRemote
		}
		err = fmt.Errorf("decode conditions: %w", err)
	}
	c.fallback(EndpointConditions, err)

	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.conditions.Generate(c.now().In(c.loc)), SourceFallback
}

// Pulse returns the remote community snapshot, or a local one on failure.
func (c *Client) Pulse(ctx context.Context) (pulse.Snapshot, Source) {
	body, err := c.fetch(ctx, EndpointPulse)
	if err == nil {
		var snap pulse.Snapshot
		if err = json.Unmarshal(body, &snap); err == nil {
			return snap, SourceRemote
		}
		err = fmt.Errorf("decode pulse: %w", err)
	}
	c.fallback(EndpointPulse, err)

	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.pulse.Generate(c.now().In(c.loc)), SourceFallback
}

// Dashboard is everything the landing page shows from the two endpoints.
type Dashboard struct {
	Conditions       conditions.Report
	ConditionsSource Source
	Pulse            pulse.Snapshot
	PulseSource      Source
}

// Dashboard loads both payloads concurrently. Each falls back on its own.
func (c *Client) Dashboard(ctx context.Context) Dashboard {
	var d Dashboard
	var g errgroup.Group
	g.Go(func() error {
		d.Conditions, d.ConditionsSource = c.Conditions(ctx)
		return nil
	})
	g.Go(func() error {
		d.Pulse, d.PulseSource = c.Pulse(ctx)
		return nil
	})
	g.Wait()
	return d
}

func (c *Client) fallback(endpoint string, err error) {
	metrics.FallbacksTotal.WithLabelValues(endpoint).Inc()
	c.logger.Debug("using local fallback", "endpoint", endpoint, "error", err)
}

var errNoBaseURL = errors.New("no remote base URL configured")

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, errNoBaseURL
	}

	body, err := c.breakers[endpoint].Execute(func() ([]byte, error) {
		return c.get(ctx, c.baseURL+"/api/"+endpoint)
	})

	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "breaker_open"
	case err != nil:
		status = "error"
	}
	metrics.RemoteCallsTotal.WithLabelValues(endpoint, status).Inc()
	return body, err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// JoinNightCrew posts a signup to the remote site.
func (c *Client) JoinNightCrew(ctx context.Context, email, city string) error {
	if c.baseURL == "" {
		return errNoBaseURL
	}
	payload, err := json.Marshal(map[string]string{"email": email, "city": city})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/nightcrew", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post nightcrew: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post nightcrew: status %d", resp.StatusCode)
	}
	return nil
}
