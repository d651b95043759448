// Package api serves the conditions and community pulse endpoints along
// with the readiness check, Night Crew signups and the share card.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/runsafetonight/internal/cache"
	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/imagegen"
	"github.com/lox/runsafetonight/internal/models"
	"github.com/lox/runsafetonight/internal/pulse"
	"github.com/lox/runsafetonight/internal/random"
)

// Edge cache policies for the two generated payloads.
const (
	ConditionsCacheControl = "s-maxage=300, stale-while-revalidate=600"
	PulseCacheControl      = "s-maxage=60, stale-while-revalidate=120"
	noStore                = "no-store"
)

// Store is the persistence the handlers need. A nil Store disables signups.
type Store interface {
	AddNightCrewMember(ctx context.Context, m models.NightCrewMember) (bool, error)
	RecordReadiness(ctx context.Context, sub models.ReadinessSubmission) error
	Ping(ctx context.Context) error
}

// Options configures a Server. Zero values fall back to sensible defaults.
type Options struct {
	Location      string
	TimeLocation  *time.Location
	ConditionsTTL time.Duration
	PulseTTL      time.Duration
	Rand          random.Source
	Now           func() time.Time
	// Source labels signups, e.g. "web" or "lambda".
	Source string
}

type Server struct {
	store     Store
	snapshots *cache.Snapshots
	cards     *imagegen.CardCache
	validate  *validator.Validate
	logger    *slog.Logger

	// genMu serialises access to rng, which need not be safe for
	// concurrent use.
	genMu      sync.Mutex
	conditions *conditions.Generator
	pulse      *pulse.Generator

	loc           *time.Location
	conditionsTTL time.Duration
	pulseTTL      time.Duration
	source        string
	now           func() time.Time
}

func NewServer(st Store, snapshots *cache.Snapshots, opts Options, logger *slog.Logger) *Server {
	if opts.Rand == nil {
		opts.Rand = random.Global()
	}
	if opts.TimeLocation == nil {
		opts.TimeLocation = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Source == "" {
		opts.Source = "web"
	}
	logger = logger.With("component", "api")
	if snapshots == nil {
		snapshots = cache.NewSnapshots(cache.NewMemory(), logger)
	}

	return &Server{
		store:         st,
		snapshots:     snapshots,
		cards:         imagegen.NewCardCache(opts.ConditionsTTL),
		validate:      validator.New(),
		logger:        logger,
		conditions:    conditions.NewGenerator(opts.Rand, opts.Location),
		pulse:         pulse.NewGenerator(opts.Rand),
		loc:           opts.TimeLocation,
		conditionsTTL: opts.ConditionsTTL,
		pulseTTL:      opts.PulseTTL,
		source:        opts.Source,
		now:           opts.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer, requestID, s.requestLogger, compress)

	generated := "GET, OPTIONS"
	submit := "POST, OPTIONS"

	r.Group(func(r chi.Router) {
		r.Use(publicHeaders(ConditionsCacheControl, generated))
		r.Get("/api/conditions", s.handleConditions)
		r.Options("/api/conditions", noop)
	})
	r.Group(func(r chi.Router) {
		r.Use(publicHeaders(PulseCacheControl, generated))
		r.Get("/api/pulse", s.handlePulse)
		r.Options("/api/pulse", noop)
		r.Get("/api/community", s.handlePulse)
		r.Options("/api/community", noop)
	})
	r.Group(func(r chi.Router) {
		r.Use(publicHeaders(noStore, submit))
		r.Post("/api/readiness", s.handleReadiness)
		r.Options("/api/readiness", noop)
		r.Post("/api/nightcrew", s.handleNightCrew)
		r.Options("/api/nightcrew", noop)
	})
	r.With(publicHeaders("public, max-age=86400", generated)).Get("/api/readiness/questions", s.handleQuestions)

	r.Get("/og/tonight.png", s.handleShareCard)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &Error{Status: http.StatusNotFound, Code: "not_found", Message: "no such endpoint"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &Error{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: r.Method + " is not supported here"})
	})

	return r
}

func noop(http.ResponseWriter, *http.Request) {}

func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// localNow is the request time in the configured timezone.
func (s *Server) localNow() time.Time {
	return s.now().In(s.loc)
}
