package token

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAccessToken(t *testing.T) {
	acc, err := NewStatic("  ghp_abc123  ")
	require.NoError(t, err)

	tok, err := acc.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", tok)
}

func TestStaticRejectsEmptyToken(t *testing.T) {
	_, err := NewStatic("   ")
	require.Error(t, err)

	var invalid *InvalidTokenError
	assert.True(t, errors.As(err, &invalid))
}

func TestNewAppRejectsBadKey(t *testing.T) {
	_, err := NewApp("Iv1.abc123", []byte("not a pem key"), 4242)
	require.Error(t, err)

	var invalid *InvalidTokenError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "application token source", invalid.Reason)
}

func TestSourceAdaptsAccessor(t *testing.T) {
	acc, err := NewStatic("ghp_abc123")
	require.NoError(t, err)

	src := Source(context.Background(), acc)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", tok.AccessToken)
	assert.True(t, tok.Valid())
	assert.False(t, tok.Expiry.IsZero(), "token must expire so ReuseTokenSource re-asks the accessor")
}

func TestSourcePropagatesAccessorFailure(t *testing.T) {
	src := Source(context.Background(), failingAccessor{})
	_, err := src.Token()

	var invalid *InvalidTokenError
	assert.True(t, errors.As(err, &invalid))
}

type failingAccessor struct{}

func (failingAccessor) AccessToken(context.Context) (string, error) {
	return "", &InvalidTokenError{Reason: "revoked"}
}
