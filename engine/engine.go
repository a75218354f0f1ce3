// Package engine serializes all outbound GitHub calls through one
// bounded FIFO queue so a single process never exceeds the provider
// rate limit and transient failures are retried safely. One request is
// in flight at a time; concurrency happens above the engine, with many
// logical operations enqueueing into the same instance.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// Engine owns the outbound transport, the pending-request deque and
// the process-wide rate-limit view. It is the sole writer of both; the
// exported methods are safe for concurrent use.
type Engine struct {
	// Authorize, when set, stamps auth headers onto the out-of-band
	// requests the engine issues itself (CheckRateLimit). Queued
	// requests arrive fully formed and are never touched.
	Authorize func(*http.Request)

	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string

	mu         sync.Mutex
	queue      deque
	draining   bool
	limits     RateLimitStatus
	seenLimits bool

	now        func() time.Time
	resetSlack time.Duration
}

// New builds an Engine around client. A nil client gets a 30s-timeout
// default; a nil logger discards.
func New(cfg Config, client *http.Client, logger *slog.Logger) *Engine {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = defaultThrottle
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		cfg:        cfg,
		httpClient: client,
		logger:     logger,
		baseURL:    defaultBaseURL,
		now:        time.Now,
		resetSlack: defaultResetSlack,
	}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	return e
}

// Do enqueues req and blocks until the engine delivers a terminal
// outcome: the successful response, or the error that ended the
// request's retry budget. It fails immediately with *QueueFullError
// when the queue is at capacity, leaving the queue untouched.
//
// Requests carrying a body must provide GetBody so retries can replay
// it; http.NewRequest sets it for the usual reader types.
func (e *Engine) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx != req.Context() {
		req = req.WithContext(ctx)
	}
	item := newQueuedRequest(req)

	e.mu.Lock()
	if e.queue.len() >= e.cfg.MaxQueueSize {
		e.mu.Unlock()
		return nil, &QueueFullError{Limit: e.cfg.MaxQueueSize}
	}
	e.queue.pushBack(item)
	start := !e.draining
	if start {
		e.draining = true
	}
	e.mu.Unlock()

	if start {
		go e.drain()
	}

	select {
	case out := <-item.done:
		return out.resp, out.err
	case <-ctx.Done():
		// The item stays queued; reap its eventual outcome so the
		// response body is not leaked.
		go func() {
			if out := <-item.done; out.resp != nil {
				out.resp.Body.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// QueueStatus reports the current queue occupancy.
func (e *Engine) QueueStatus() QueueStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return QueueStatus{
		Length:   e.queue.len(),
		Draining: e.draining,
		Max:      e.cfg.MaxQueueSize,
	}
}

// RateLimitStatus returns the last quota view reported by the
// provider. The zero value means no response has carried rate-limit
// headers yet.
func (e *Engine) RateLimitStatus() RateLimitStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.seenLimits {
		return RateLimitStatus{}
	}
	return e.limits
}

// CheckRateLimit queries the provider's /rate_limit endpoint directly,
// bypassing the queue, and refreshes the tracked quota. The endpoint
// itself does not consume quota.
func (e *Engine) CheckRateLimit(ctx context.Context) (RateLimitStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/rate_limit", nil)
	if err != nil {
		return RateLimitStatus{}, err
	}
	if e.Authorize != nil {
		e.Authorize(req)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return RateLimitStatus{}, fmt.Errorf("rate limit probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RateLimitStatus{}, newAPIError(resp)
	}

	var payload struct {
		Resources struct {
			Core struct {
				Limit     int   `json:"limit"`
				Remaining int   `json:"remaining"`
				Used      int   `json:"used"`
				Reset     int64 `json:"reset"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RateLimitStatus{}, fmt.Errorf("decode rate limit response: %w", err)
	}

	status := RateLimitStatus{
		Limit:     payload.Resources.Core.Limit,
		Remaining: payload.Resources.Core.Remaining,
		Used:      payload.Resources.Core.Used,
		Reset:     time.Unix(payload.Resources.Core.Reset, 0),
	}

	e.mu.Lock()
	e.limits = status
	e.seenLimits = true
	e.mu.Unlock()

	return status, nil
}

// drain processes queued requests one at a time until the queue is
// empty. Exactly one drain goroutine runs while draining is set.
func (e *Engine) drain() {
	for {
		e.mu.Lock()
		item, ok := e.queue.popFront()
		if !ok {
			e.draining = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		e.process(item)
	}
}

// process runs one dispatch attempt for item and either resolves it or
// re-queues it at the front.
func (e *Engine) process(item *queuedRequest) {
	ctx := item.req.Context()
	if err := ctx.Err(); err != nil {
		item.resolve(nil, err)
		return
	}

	if wait := e.rateLimitWait(); wait > 0 {
		e.logger.Info("rate limit exhausted, pausing queue", "wait", wait.Round(time.Millisecond))
		if err := sleepContext(ctx, wait); err != nil {
			item.resolve(nil, err)
			return
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			item.resolve(nil, err)
			return
		}
	}

	resp, err := e.dispatch(item.req)
	if err != nil {
		e.retryOrFail(item, &APIError{Message: err.Error(), Err: err})
		return
	}

	e.updateLimits(resp.Header)
	status := e.RateLimitStatus()

	if resp.StatusCode == http.StatusForbidden && headerExhausted(resp.Header) {
		discard(resp)
		wait := status.Reset.Sub(e.now()) + e.resetSlack
		e.logger.Warn("hard rate limit hit, waiting for reset",
			"reset", status.Reset,
			"wait", wait.Round(time.Millisecond),
		)
		if wait > 0 {
			if err := sleepContext(ctx, wait); err != nil {
				item.resolve(nil, err)
				return
			}
		}
		// Not a retry: the request goes back to the front with its
		// retry budget intact.
		e.requeueFront(item)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp)
		discard(resp)
		e.retryOrFail(item, apiErr)
		return
	}

	item.resolve(resp, nil)

	if e.seenLimitsNow() && status.Remaining <= e.cfg.ThrottleRemaining {
		time.Sleep(e.cfg.ThrottleDelay)
	}
}

// retryOrFail applies the exponential backoff and front re-insertion
// for retriable failures, or resolves the item with its terminal
// error once the budget is spent.
func (e *Engine) retryOrFail(item *queuedRequest, cause *APIError) {
	if item.retries >= e.cfg.MaxRetries {
		cause.Message = fmt.Sprintf("%s (after %d attempts)", cause.Message, item.retries+1)
		item.resolve(nil, cause)
		return
	}
	item.retries++
	delay := e.cfg.BaseDelay << (item.retries - 1)
	e.logger.Warn("request failed, backing off",
		"attempt", item.retries,
		"max_retries", e.cfg.MaxRetries,
		"delay", delay,
		"status", cause.StatusCode,
	)
	if err := sleepContext(item.req.Context(), delay); err != nil {
		item.resolve(nil, err)
		return
	}
	e.requeueFront(item)
}

func (e *Engine) requeueFront(item *queuedRequest) {
	e.mu.Lock()
	e.queue.pushFront(item)
	e.mu.Unlock()
}

// dispatch issues one HTTP attempt. The request is cloned with a fresh
// body so later attempts can replay it.
func (e *Engine) dispatch(req *http.Request) (*http.Response, error) {
	attempt := req
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attempt = req.Clone(req.Context())
		attempt.Body = body
	}
	return e.httpClient.Do(attempt)
}

// rateLimitWait returns how long dispatch must pause before the
// provider quota resets, or 0 when dispatch may proceed.
func (e *Engine) rateLimitWait() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.seenLimits || e.limits.Remaining > 0 {
		return 0
	}
	wait := e.limits.Reset.Sub(e.now())
	if wait <= 0 {
		return 0
	}
	return wait
}

func (e *Engine) seenLimitsNow() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seenLimits
}

// updateLimits refreshes the quota view from response headers. Absent
// headers leave the previous view in place.
func (e *Engine) updateLimits(h http.Header) {
	e.mu.Lock()
	defer e.mu.Unlock()
	touched := false
	if n, ok := headerInt(h, "x-ratelimit-limit"); ok {
		e.limits.Limit = n
		touched = true
	}
	if n, ok := headerInt(h, "x-ratelimit-remaining"); ok {
		e.limits.Remaining = n
		touched = true
	}
	if n, ok := headerInt(h, "x-ratelimit-used"); ok {
		e.limits.Used = n
		touched = true
	}
	if v := h.Get("x-ratelimit-reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.limits.Reset = time.Unix(sec, 0)
			touched = true
		}
	}
	if touched {
		e.seenLimits = true
	}
}

func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// headerExhausted reports whether this specific response says the
// quota is spent. Only a 403 carrying remaining=0 is treated as a hard
// limit; a bare 403 is an ordinary failure.
func headerExhausted(h http.Header) bool {
	n, ok := headerInt(h, "x-ratelimit-remaining")
	return ok && n == 0
}

// discard drains and closes a response body the engine is not handing
// to a caller, keeping the connection reusable.
func discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
