package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// QueueFullError is returned synchronously when the request queue is
// at capacity. Callers should back off and enqueue again later; the
// engine never retries this on their behalf.
type QueueFullError struct {
	Limit int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("request queue is full (limit %d)", e.Limit)
}

// APIError is a provider call that failed terminally: a non-2xx
// response after retries were exhausted, or a transport failure that
// never produced a response (StatusCode 0).
type APIError struct {
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

const errorBodyLimit = 2048

// newAPIError captures the status and a bounded body snippet from a
// failed response. The caller keeps ownership of resp.Body.
func newAPIError(resp *http.Response) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	message := strings.TrimSpace(http.StatusText(resp.StatusCode))

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(snippet, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       string(snippet),
	}
}
