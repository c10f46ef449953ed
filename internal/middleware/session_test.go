package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/repairhub/internal/auth"
)

func signClaims(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func runGuard(token string) (*httptest.ResponseRecorder, string) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/service-application", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenEmail string
	handler := SessionGuard(func(c echo.Context) error {
		seenEmail, _ = c.Get("email").(string)
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, seenEmail
}

func TestSessionGuardMissingCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	rec, _ := runGuard("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGuardValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	rec, email := runGuard(signClaims(t, "a@x.com", time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a@x.com", email)
}

func TestSessionGuardExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	rec, _ := runGuard(signClaims(t, "a@x.com", -time.Minute))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token expired")
}

func TestSessionGuardTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	rec, _ := runGuard(signClaims(t, "a@x.com", time.Hour) + "x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")
}
