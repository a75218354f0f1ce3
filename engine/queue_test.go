package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDequeOrdering(t *testing.T) {
	var d deque

	mk := func(path string) *queuedRequest {
		req, _ := http.NewRequest(http.MethodGet, "https://api.github.com"+path, nil)
		return newQueuedRequest(req)
	}

	d.pushBack(mk("/a"))
	d.pushBack(mk("/b"))
	d.pushBack(mk("/c"))
	d.pushFront(mk("/retry"))
	require.Equal(t, 4, d.len())

	var order []string
	for {
		item, ok := d.popFront()
		if !ok {
			break
		}
		order = append(order, item.req.URL.Path)
	}
	assert.Equal(t, []string{"/retry", "/a", "/b", "/c"}, order)
	assert.Zero(t, d.len())

	_, ok := d.popFront()
	assert.False(t, ok)
}

func TestQueueFullErrorMessage(t *testing.T) {
	err := &QueueFullError{Limit: 100}
	assert.Equal(t, "request queue is full (limit 100)", err.Error())
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &APIError{Message: "dispatch failed", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "github api: dispatch failed", err.Error())

	withStatus := &APIError{StatusCode: 502, Message: "Bad Gateway"}
	assert.Equal(t, "github api: status 502: Bad Gateway", withStatus.Error())
}

func TestNewAPIErrorExtractsProviderMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "json message",
			status:  404,
			body:    `{"message":"Not Found","documentation_url":"https://docs.github.com"}`,
			message: "Not Found",
		},
		{
			name:    "non json body keeps status text",
			status:  502,
			body:    "<html>bad gateway</html>",
			message: "Bad Gateway",
		},
		{
			name:    "empty body keeps status text",
			status:  500,
			body:    "",
			message: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}
			apiErr := newAPIError(resp)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.body, apiErr.Body)
		})
	}
}

func TestNewAPIErrorBoundsBodySnippet(t *testing.T) {
	long := strings.Repeat("x", errorBodyLimit*2)
	resp := &http.Response{
		StatusCode: 500,
		Body:       io.NopCloser(strings.NewReader(long)),
	}
	apiErr := newAPIError(resp)
	assert.Len(t, apiErr.Body, errorBodyLimit)
	assert.Equal(t, fmt.Sprintf("github api: status 500: %s", "Internal Server Error"), apiErr.Error())
}
