package token

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestSignDecodeRoundTrip(t *testing.T) {
	raw, err := Sign("1234567890", "Soren", "soren_ffxiv", testSecret, time.Hour)
	require.NoError(t, err)

	claims := Decode(raw, testSecret)
	require.NotNil(t, claims)
	assert.Equal(t, "1234567890", claims.Subject)
	assert.Equal(t, "Soren", claims.DisplayName())
}

func TestDisplayNameFallsBackToUsername(t *testing.T) {
	raw, err := Sign("42", "", "fallback_name", testSecret, time.Hour)
	require.NoError(t, err)

	claims := Decode(raw, testSecret)
	require.NotNil(t, claims)
	assert.Equal(t, "fallback_name", claims.DisplayName())
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	raw, err := Sign("42", "n", "u", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, Decode(raw, "some-other-secret"))
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	raw, err := Sign("42", "n", "u", testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Nil(t, Decode(raw, testSecret))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	assert.Nil(t, Decode("not.a.token", testSecret))
	assert.Nil(t, Decode("", testSecret))
	assert.Nil(t, Decode("onlyonesegment", testSecret))
}

// A token declaring "none" or any non-HS256 algorithm must fail before
// signature verification, even if someone crafts it against the real secret.
func TestDecodeRejectsAlgorithmConfusion(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := tok.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.Nil(t, Decode(raw, testSecret))
}
