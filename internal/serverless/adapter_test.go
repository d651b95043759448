package serverless

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/runsafetonight/internal/api"
	"github.com/lox/runsafetonight/internal/random"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(method, path, body string) events.APIGatewayV2HTTPRequest {
	e := events.APIGatewayV2HTTPRequest{
		RouteKey: "$default",
		RawPath:  path,
		Headers:  map[string]string{"content-type": "application/json"},
		Body:     body,
	}
	e.RequestContext.HTTP.Method = method
	e.RequestContext.HTTP.Path = path
	e.RequestContext.RequestID = "gw-123"
	e.RequestContext.DomainName = "api.runsafetonight.com"
	return e
}

func newAdapter() *Adapter {
	srv := api.NewServer(nil, nil, api.Options{
		ConditionsTTL: 5 * time.Minute,
		PulseTTL:      time.Minute,
		Rand:          random.New(1),
		Now:           func() time.Time { return time.Date(2026, time.October, 23, 21, 0, 0, 0, time.UTC) },
		Source:        "lambda",
	}, discard())
	return New(srv.Handler(), discard())
}

func TestHandle_Conditions(t *testing.T) {
	resp, err := newAdapter().Handle(context.Background(), event(http.MethodGet, "/api/conditions", ""))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, api.ConditionsCacheControl, resp.Headers["Cache-Control"])
	assert.Equal(t, "gw-123", resp.Headers["X-Request-Id"])

	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &wire))
	assert.Equal(t, "2026-10-23T21:00:00.000Z", wire["timestamp"])
}

func TestHandle_Preflight(t *testing.T) {
	resp, err := newAdapter().Handle(context.Background(), event(http.MethodOptions, "/api/pulse", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "GET, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
}

func TestHandle_Base64Body(t *testing.T) {
	e := event(http.MethodPost, "/api/readiness", base64.StdEncoding.EncodeToString([]byte(`{"answers":{"1":"veteran","3":"full","4":"always","5":"confident"}}`)))
	e.IsBase64Encoded = true

	resp, err := newAdapter().Handle(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.Contains(t, resp.Body, `"score":100`)
}

func TestHandle_InvalidBase64(t *testing.T) {
	e := event(http.MethodPost, "/api/readiness", "%%%")
	e.IsBase64Encoded = true

	resp, err := newAdapter().Handle(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandle_BinaryResponse(t *testing.T) {
	resp, err := newAdapter().Handle(context.Background(), event(http.MethodGet, "/og/tonight.png", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)

	data, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		header http.Header
		want   bool
	}{
		{http.Header{"Content-Type": {"application/json"}}, false},
		{http.Header{"Content-Type": {"text/plain; charset=utf-8"}}, false},
		{http.Header{"Content-Type": {"image/png"}}, true},
		{http.Header{"Content-Type": {"application/json"}, "Content-Encoding": {"gzip"}}, true},
		{http.Header{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isBinary(tt.header), "%v", tt.header)
	}
}
