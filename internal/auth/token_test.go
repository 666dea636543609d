package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
}

func TestTokenWrongSecret(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("another-secret", time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenManager("test-secret", -time.Minute)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)

	_, err := tokens.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
