package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := IssueToken("a@x.com")
	require.NoError(t, err)

	claims, err := VerifyToken(signed)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Email)
	require.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyTokenExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := issueToken("a@x.com", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := Claims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(forged)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := VerifyToken("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenMissingEmail(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
