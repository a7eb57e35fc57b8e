package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "contactgraph/backend/pkg/errors"
)

func TestRSAKeyFromJWK(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	encoded := jwk{
		Kid: "test-kid",
		Kty: "RSA",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(new(big.Int).SetInt64(int64(key.PublicKey.E)).Bytes()),
	}

	decoded, err := rsaKeyFromJWK(encoded)
	require.NoError(t, err)
	assert.Zero(t, decoded.N.Cmp(key.PublicKey.N))
	assert.Equal(t, key.PublicKey.E, decoded.E)
}

func TestRSAKeyFromJWKRejectsBadEncoding(t *testing.T) {
	_, err := rsaKeyFromJWK(jwk{Kid: "bad", Kty: "RSA", N: "!!!", E: "AQAB"})
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := NewGoogleVerifier("client-id")

	_, err := verifier.Verify(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeAuth))
}

func TestVerifyRejectsWrongSigningMethod(t *testing.T) {
	// HS256 is refused before any key lookup happens, so no network is
	// involved
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "https://accounts.google.com",
		Subject:   "uid-1",
		Audience:  jwt.ClaimStrings{"client-id"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	verifier := NewGoogleVerifier("client-id")
	_, err = verifier.Verify(context.Background(), signed)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeAuth))
}
