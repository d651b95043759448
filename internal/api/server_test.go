package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/runsafetonight/internal/api"
	"github.com/lox/runsafetonight/internal/cache"
	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/models"
	"github.com/lox/runsafetonight/internal/pulse"
	"github.com/lox/runsafetonight/internal/random"
	"github.com/lox/runsafetonight/internal/store"
)

var fixedNow = time.Date(2026, time.October, 20, 18, 30, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db, discard())
	require.NoError(t, s.Migrate())
	return s
}

func newServer(t *testing.T, st api.Store) *api.Server {
	t.Helper()
	return api.NewServer(st, cache.NewSnapshots(cache.NewMemory(), discard()), api.Options{
		ConditionsTTL: 5 * time.Minute,
		PulseTTL:      time.Minute,
		Rand:          random.New(42),
		Now:           func() time.Time { return fixedNow },
	}, discard())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestConditionsEndpoint(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/api/conditions", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, api.ConditionsCacheControl, w.Header().Get("Cache-Control"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var wire map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wire))
	for _, key := range []string{"sunset", "temp", "wind", "visibility", "moon", "streets", "verdict", "tips", "timestamp", "location"} {
		assert.Contains(t, wire, key)
	}
	assert.Equal(t, "6:15 PM", wire["sunset"])
	assert.Equal(t, "High", wire["streets"])
	assert.Equal(t, conditions.DefaultLocation, wire["location"])
	assert.Equal(t, "2026-10-20T18:30:00.000Z", wire["timestamp"])
}

func TestConditionsEndpoint_CachedWithinWindow(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	first := do(t, h, http.MethodGet, "/api/conditions", "").Body.String()
	second := do(t, h, http.MethodGet, "/api/conditions", "").Body.String()
	assert.Equal(t, first, second)
}

func TestPulseEndpoint(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	for _, path := range []string{"/api/pulse", "/api/community"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, api.PulseCacheControl, w.Header().Get("Cache-Control"))
			assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

			var snap pulse.Snapshot
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
			assert.Len(t, snap.Feed, pulse.FeedSize)
			assert.GreaterOrEqual(t, snap.Stats.RunnersTonight, 2200)
			assert.Less(t, snap.Stats.RunnersTonight, 3400)
		})
	}
}

func TestPreflight(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	for _, path := range []string{"/api/conditions", "/api/pulse", "/api/readiness", "/api/nightcrew"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, h, http.MethodOptions, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()
	h := newServer(t, setupTestStore(t)).Handler()

	w := do(t, h, http.MethodPost, "/api/readiness",
		`{"answers":{"1":"veteran","2":"yes","3":"full","4":"always","5":"confident"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Score           int    `json:"score"`
		Tier            string `json:"tier"`
		Feedback        string `json:"feedback"`
		Recommendations []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, "confident", result.Tier)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "#nightcrew", result.Recommendations[0].Link)
}

func TestReadinessEndpoint_Invalid(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty body", "", "invalid_json"},
		{"malformed", `{"answers":`, "invalid_json"},
		{"unknown field", `{"answers":{},"extra":1}`, "invalid_json"},
		{"missing answers", `{}`, "validation_failed"},
		{"question out of range", `{"answers":{"9":"veteran"}}`, "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/readiness", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var env struct {
				Error struct {
					Code      string `json:"code"`
					RequestID string `json:"request_id"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, w.Header().Get("X-Request-ID"), env.Error.RequestID)
		})
	}
}

func TestQuestionsEndpoint(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/api/readiness/questions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Questions []struct {
			Number  int `json:"number"`
			Options []struct {
				Value string `json:"value"`
			} `json:"options"`
		} `json:"questions"`
		AdvanceDelay int `json:"advanceDelay"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Questions, 5)
	assert.Equal(t, 400, body.AdvanceDelay)
}

func TestNightCrewEndpoint(t *testing.T) {
	t.Parallel()
	st := setupTestStore(t)
	h := newServer(t, st).Handler()

	for i := 0; i < 2; i++ {
		w := do(t, h, http.MethodPost, "/api/nightcrew", `{"email":"night@example.com","city":"Denver"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), api.WelcomeMessage)
	}

	n, err := st.CountNightCrewMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m, err := st.GetNightCrewMember(context.Background(), "night@example.com")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Denver", m.City.String)
}

func TestNightCrewEndpoint_Invalid(t *testing.T) {
	t.Parallel()
	h := newServer(t, setupTestStore(t)).Handler()

	for _, body := range []string{`{"email":""}`, `{"email":"not-an-email"}`} {
		w := do(t, h, http.MethodPost, "/api/nightcrew", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"validation_failed"`)
	}
}

func TestNightCrewEndpoint_NoStore(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	w := do(t, h, http.MethodPost, "/api/nightcrew", `{"email":"night@example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "signups_unavailable")
}

func TestShareCard(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/og/tonight.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	h := newServer(t, setupTestStore(t)).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"cache":"ok","store":"ok"}}`, w.Body.String())
}

type brokenStore struct{}

func (brokenStore) AddNightCrewMember(context.Context, models.NightCrewMember) (bool, error) {
	return false, errors.New("disk full")
}

func (brokenStore) RecordReadiness(context.Context, models.ReadinessSubmission) error {
	return errors.New("disk full")
}

func (brokenStore) Ping(context.Context) error { return errors.New("disk full") }

func TestHealthEndpoint_Degraded(t *testing.T) {
	t.Parallel()
	h := newServer(t, brokenStore{}).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"cache":"ok","store":"error"}}`, w.Body.String())
}

func TestStoreErrorsAreNotLeaked(t *testing.T) {
	t.Parallel()
	h := newServer(t, brokenStore{}).Handler()

	w := do(t, h, http.MethodPost, "/api/nightcrew", `{"email":"night@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")

	// Readiness still scores when recording fails.
	w = do(t, h, http.MethodPost, "/api/readiness", `{"answers":{"1":"beginner"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"not_found"`)

	w = do(t, h, http.MethodDelete, "/api/conditions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGzip(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/readiness/questions", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
