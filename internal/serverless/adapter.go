// Package serverless runs the HTTP handler behind API Gateway HTTP APIs on
// AWS Lambda.
package serverless

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter converts API Gateway v2 events into requests for an http.Handler.
type Adapter struct {
	handler http.Handler
	logger  *slog.Logger
}

func New(handler http.Handler, logger *slog.Logger) *Adapter {
	return &Adapter{handler: handler, logger: logger.With("component", "serverless")}
}

// Handle is the Lambda entry point.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := toRequest(ctx, event)
	if err != nil {
		a.logger.Error("invalid gateway event", "error", err, "route", event.RouteKey)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":{"code":"bad_request","message":"invalid request"}}`,
		}, nil
	}

	w := newResponseWriter()
	a.handler.ServeHTTP(w, req)
	return w.toResponse(), nil
}

func toRequest(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path, RawQuery: event.RawQueryString}

	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		// API Gateway joins repeated headers with commas.
		for _, part := range strings.Split(v, ",") {
			req.Header.Add(k, strings.TrimSpace(part))
		}
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	} else {
		req.Host = event.RequestContext.DomainName
	}
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	if id := event.RequestContext.RequestID; id != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", id)
	}
	req.ContentLength = int64(len(body))
	return req, nil
}

type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toResponse() events.APIGatewayV2HTTPResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(w.header))
	var cookies []string
	for k, v := range w.header {
		if k == "Set-Cookie" {
			cookies = append(cookies, v...)
			continue
		}
		headers[k] = strings.Join(v, ",")
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Cookies:    cookies,
	}
	if isBinary(w.header) {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	} else {
		resp.Body = w.body.String()
	}
	return resp
}

// isBinary reports whether the body must be base64 encoded for the gateway.
func isBinary(h http.Header) bool {
	if h.Get("Content-Encoding") != "" {
		return true
	}
	ct := h.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/xml",
		mediaType == "application/javascript":
		return false
	}
	return true
}
