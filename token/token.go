package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jferrl/go-githubauth"
	"golang.org/x/oauth2"
)

// Accessor supplies the bearer token used for every provider call. The
// data client asks for a token before it enqueues anything, so an
// accessor failure surfaces without a single network round trip.
type Accessor interface {
	AccessToken(ctx context.Context) (string, error)
}

// InvalidTokenError reports that the accessor could not produce a
// usable token.
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid github token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid github token: %s", e.Reason)
}

func (e *InvalidTokenError) Unwrap() error { return e.Err }

// Static is an Accessor backed by a fixed personal access token.
type Static struct {
	token string
}

// NewStatic validates and wraps a personal access token.
func NewStatic(tok string) (*Static, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, &InvalidTokenError{Reason: "empty token"}
	}
	return &Static{token: tok}, nil
}

func (s *Static) AccessToken(context.Context) (string, error) {
	if s == nil || s.token == "" {
		return "", &InvalidTokenError{Reason: "empty token"}
	}
	return s.token, nil
}

// App mints GitHub App installation tokens on demand. Tokens are cached
// and refreshed through oauth2.ReuseTokenSource, so AccessToken is
// cheap between expiries.
type App struct {
	source oauth2.TokenSource
}

// NewApp builds an installation-scoped token source from App
// credentials.
func NewApp(clientID string, privateKey []byte, installationID int64) (*App, error) {
	appSource, err := githubauth.NewApplicationTokenSource(clientID, privateKey)
	if err != nil {
		return nil, &InvalidTokenError{Reason: "application token source", Err: err}
	}
	installSource := githubauth.NewInstallationTokenSource(installationID, appSource)
	return &App{source: oauth2.ReuseTokenSource(nil, installSource)}, nil
}

func (a *App) AccessToken(context.Context) (string, error) {
	tok, err := a.source.Token()
	if err != nil {
		return "", &InvalidTokenError{Reason: "installation token", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &InvalidTokenError{Reason: "empty installation token"}
	}
	return tok.AccessToken, nil
}

// Source adapts an Accessor to an oauth2.TokenSource so it can ride the
// standard oauth2 transport.
func Source(ctx context.Context, a Accessor) oauth2.TokenSource {
	return &accessorSource{ctx: ctx, accessor: a}
}

type accessorSource struct {
	ctx      context.Context
	accessor Accessor
}

func (s *accessorSource) Token() (*oauth2.Token, error) {
	raw, err := s.accessor.AccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	// Expire quickly so a wrapping ReuseTokenSource re-asks the
	// accessor instead of caching a minted installation token past
	// its real lifetime. Accessors cache on their own.
	return &oauth2.Token{
		AccessToken: raw,
		Expiry:      time.Now().Add(time.Minute),
	}, nil
}
