package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/imagegen"
	"github.com/lox/runsafetonight/internal/metrics"
	"github.com/lox/runsafetonight/internal/models"
	"github.com/lox/runsafetonight/internal/readiness"
)

// ConditionsJSON returns the current conditions payload, shared across
// requests for the TTL window.
func (s *Server) ConditionsJSON(ctx context.Context) ([]byte, error) {
	now := s.localNow()
	return s.snapshots.Get(ctx, "conditions", now, s.conditionsTTL, func() ([]byte, error) {
		s.genMu.Lock()
		report := s.conditions.Generate(now)
		s.genMu.Unlock()
		return json.Marshal(report)
	})
}

// PulseJSON returns the current community pulse payload.
func (s *Server) PulseJSON(ctx context.Context) ([]byte, error) {
	now := s.localNow()
	return s.snapshots.Get(ctx, "pulse", now, s.pulseTTL, func() ([]byte, error) {
		s.genMu.Lock()
		snap := s.pulse.Generate(now)
		s.genMu.Unlock()
		return json.Marshal(snap)
	})
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	body, err := s.ConditionsJSON(r.Context())
	if err != nil {
		s.logger.Error("conditions failed", "error", err)
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handlePulse(w http.ResponseWriter, r *http.Request) {
	body, err := s.PulseJSON(r.Context())
	if err != nil {
		s.logger.Error("pulse failed", "error", err)
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

type readinessRequest struct {
	Answers map[string]string `json:"answers" validate:"required,max=5,dive,keys,oneof=1 2 3 4 5,endkeys,max=32"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	var req readinessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	answers := make(readiness.Answers, len(req.Answers))
	for k, v := range req.Answers {
		q, _ := strconv.Atoi(k)
		answers[q] = v
	}
	result := readiness.Score(answers)
	metrics.ReadinessScores.Observe(float64(result.Score))

	if s.store != nil {
		sub := models.ReadinessSubmission{Score: result.Score, Tier: string(result.Tier), CreatedAt: s.now().UTC()}
		if err := s.store.RecordReadiness(r.Context(), sub); err != nil {
			s.logger.Warn("record readiness failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions":    readiness.Questions,
		"advanceDelay": readiness.AdvanceDelay.Milliseconds(),
	})
}

// WelcomeMessage is shown after a successful Night Crew signup.
const WelcomeMessage = "Welcome to the Night Crew! Check your email for confirmation."

type nightCrewRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	City  string `json:"city" validate:"omitempty,max=80"`
}

type nightCrewResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleNightCrew(w http.ResponseWriter, r *http.Request) {
	var req nightCrewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.City = strings.TrimSpace(req.City)
	if err := s.validate.Struct(req); err != nil {
		metrics.NightCrewSignups.WithLabelValues("invalid").Inc()
		writeError(w, r, validationError(err))
		return
	}
	if s.store == nil {
		writeError(w, r, errSignupsUnavailable)
		return
	}

	created, err := s.store.AddNightCrewMember(r.Context(), models.NightCrewMember{
		Email:     req.Email,
		City:      sql.NullString{String: req.City, Valid: req.City != ""},
		Source:    s.source,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		metrics.NightCrewSignups.WithLabelValues("error").Inc()
		s.logger.Error("nightcrew signup failed", "error", err)
		writeError(w, r, err)
		return
	}

	outcome := "created"
	if !created {
		outcome = "duplicate"
	}
	metrics.NightCrewSignups.WithLabelValues(outcome).Inc()
	writeJSON(w, http.StatusCreated, nightCrewResponse{Message: WelcomeMessage})
}

func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	body, err := s.ConditionsJSON(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var report conditions.Report
	if err := json.Unmarshal(body, &report); err != nil {
		writeError(w, r, fmt.Errorf("decode cached conditions: %w", err))
		return
	}

	data := imagegen.CardDataFromReport(report)
	png, ok := s.cards.Get(data.Key())
	if !ok {
		png, err = imagegen.RenderCard(data)
		if err != nil {
			s.logger.Error("render share card failed", "error", err)
			writeError(w, r, err)
			return
		}
		s.cards.Set(data.Key(), png)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(png)
}

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{
		"cache": s.snapshots.Cache().Ping,
	}
	if s.store != nil {
		probes["store"] = s.store.Ping
	}

	names := make([]string, 0, len(probes))
	errs := make([]error, len(probes))
	var g errgroup.Group
	for name, probe := range probes {
		i := len(names)
		names = append(names, name)
		g.Go(func() error {
			errs[i] = probe(ctx)
			return nil
		})
	}
	g.Wait()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for i, name := range names {
		if err := errs[i]; err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	w.Header().Set("Cache-Control", noStore)
	writeJSON(w, status, resp)
}
