package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxRequestBodySize = 64 << 10

// Error is an error with a client-facing code and HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(code, message string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message, Err: err}
}

var errSignupsUnavailable = &Error{
	Status:  http.StatusServiceUnavailable,
	Code:    "signups_unavailable",
	Message: "night crew signups are temporarily unavailable",
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal_error","message":"failed to marshal response"}}`))
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError renders err as the error envelope. Errors that are not *Error
// become a 500 without exposing their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	detail := errorDetail{
		Code:      "internal_error",
		Message:   "an unexpected error occurred",
		RequestID: RequestIDFrom(r.Context()),
	}
	status := http.StatusInternalServerError

	var apiErr *Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		detail.Code = apiErr.Code
		detail.Message = apiErr.Message
		detail.Details = apiErr.Details
	}
	writeJSON(w, status, errorResponse{Error: detail})
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return badRequest("invalid_json", "request body too large", err)
		case errors.Is(err, io.EOF):
			return badRequest("invalid_json", "request body must not be empty", err)
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return badRequest("invalid_json", "unknown field in request body: "+strings.TrimPrefix(err.Error(), "json: unknown field "), err)
		default:
			return badRequest("invalid_json", "malformed JSON in request body", err)
		}
	}
	if dec.More() {
		return badRequest("invalid_json", "request body must contain a single JSON object", nil)
	}
	return nil
}

// validationError maps validator failures to a 400 listing the failing
// fields and rules.
func validationError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("validation_failed", "invalid request", err)
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	e := badRequest("validation_failed", "invalid request", err)
	e.Details = map[string]any{"fields": fields}
	return e
}
