package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal("refresh-token-value")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealPrefix))
	assert.NotContains(t, sealed, "refresh-token-value")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-value", plain)
}

func TestSealer_NoncesDiffer(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenPlainValue(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	plain, err := s.Open("legacy-plain-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain-token", plain)
}

func TestSealer_WrongKey(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)
	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	other, err := NewSealer(base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff")))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.Error(t, err)
}

func TestNewSealer_InvalidKey(t *testing.T) {
	_, err := NewSealer("not base64!")
	require.Error(t, err)

	_, err = NewSealer(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}

func TestPlainSealer(t *testing.T) {
	s, err := NewSealer("")
	require.NoError(t, err)

	sealed, err := s.Seal("token")
	require.NoError(t, err)
	assert.Equal(t, "token", sealed)

	_, err = s.Open(sealPrefix + "abc")
	require.Error(t, err)
}
