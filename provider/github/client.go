package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/devpulsehq/insights-engine/cache"
	"github.com/devpulsehq/insights-engine/engine"
	"github.com/devpulsehq/insights-engine/token"
)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultUserAgent  = "devpulse-insights/1.0"
	defaultPageSize   = 100
	defaultCacheTTL   = 5 * time.Minute
)

// Options configures a Client. Engine and Tokens are required, the
// rest defaults to production GitHub.
type Options struct {
	Engine *engine.Engine
	Tokens token.Accessor

	Cache    *cache.Cache
	CacheTTL time.Duration

	Logger *slog.Logger

	// BaseURL and GraphQLURL exist for tests and GitHub Enterprise.
	BaseURL    string
	GraphQLURL string

	UserAgent string
	PageSize  int
}

// Client fetches GitHub data over REST and GraphQL. Every request
// rides the engine's queue through an oauth2 transport, so the bearer
// token is stamped, and token failures surface, before anything is
// enqueued.
type Client struct {
	gh         *github.Client
	http       *http.Client
	engine     *engine.Engine
	tokens     token.Accessor
	cache      *cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
	graphqlURL string
	userAgent  string
	pageSize   int
	now        func() time.Time
}

// New wires a Client on top of the request engine.
func New(opts Options) (*Client, error) {
	if opts.Engine == nil {
		return nil, errors.New("github: request engine is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("github: token accessor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Out-of-band requests such as CheckRateLimit skip the oauth2
	// transport, so the engine needs its own way to authorize them.
	opts.Engine.Authorize = func(req *http.Request) {
		tok, err := opts.Tokens.AccessToken(req.Context())
		if err != nil {
			logger.Warn("token accessor failed for out-of-band request", "error", err)
			return
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	base := &http.Client{Transport: opts.Engine.Transport()}
	octx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(octx, token.Source(context.Background(), opts.Tokens))

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	ghc := github.NewClient(httpClient)
	ghc.UserAgent = userAgent
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		ghc.BaseURL = u
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	graphqlURL := opts.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = defaultGraphQLURL
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Client{
		gh:         ghc,
		http:       httpClient,
		engine:     opts.Engine,
		tokens:     opts.Tokens,
		cache:      opts.Cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		graphqlURL: graphqlURL,
		userAgent:  userAgent,
		pageSize:   pageSize,
		now:        time.Now,
	}, nil
}

// CheckRateLimit asks for the current core quota out of band, without
// going through the request queue.
func (c *Client) CheckRateLimit(ctx context.Context) (engine.RateLimitStatus, error) {
	return c.engine.CheckRateLimit(ctx)
}

// RateLimitStatus reports the quota as of the last processed response.
func (c *Client) RateLimitStatus() engine.RateLimitStatus {
	return c.engine.RateLimitStatus()
}

// QueueStatus reports the engine queue depth.
func (c *Client) QueueStatus() engine.QueueStatus {
	return c.engine.QueueStatus()
}

// InvalidateUser drops every cached entry derived from username's
// data, including repository-scoped entries for repos they own.
func (c *Client) InvalidateUser(username string) int {
	if c.cache == nil {
		return 0
	}
	return c.cache.InvalidatePattern("github:*:" + username + "*")
}

func (c *Client) cached(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Client) store(key string, val any) {
	if c.cache != nil {
		c.cache.Set(key, val, c.cacheTTL)
	}
}

// nextPage decides where pagination goes after one response. When the
// API sent a Link header its relations are authoritative. Without one
// the only signal left is page fullness: a short page ends the walk,
// a full one means try the next index.
func nextPage(resp *github.Response, got, pageSize, current int) int {
	if resp == nil {
		return 0
	}
	if resp.NextPage > 0 || resp.PrevPage > 0 || resp.FirstPage > 0 || resp.LastPage > 0 {
		return resp.NextPage
	}
	if got < pageSize {
		return 0
	}
	return current + 1
}
