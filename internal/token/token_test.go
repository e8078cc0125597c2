package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerify_RoundTrip(t *testing.T) {
	tok, err := Mint(42, "secret", time.Hour)
	require.NoError(t, err)

	id, err := Verify(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := Mint(42, "secret", time.Hour)
	require.NoError(t, err)

	_, err = Verify(tok, "other-secret")
	require.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	tok, err := Mint(42, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Verify(tok, "secret")
	require.Error(t, err)
}

func TestMint_TokensAreUnique(t *testing.T) {
	a, err := Mint(42, "secret", time.Hour)
	require.NoError(t, err)
	b, err := Mint(42, "secret", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "the jti makes same-second logins distinct")
}
