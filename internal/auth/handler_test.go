package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func postJSON(target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestIssueCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, rec := postJSON("/jwt", `{"email": "a@x.com"}`)
	require.NoError(t, IssueCookie(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(t, rec, CookieName)
	require.True(t, cookie.HttpOnly)

	claims, err := VerifyToken(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Email)
}

func TestIssueCookieRequiresEmail(t *testing.T) {
	c, rec := postJSON("/jwt", `{}`)
	require.NoError(t, IssueCookie(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestLogoutClearsCookie(t *testing.T) {
	c, rec := postJSON("/logout", "")
	require.NoError(t, Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(t, rec, CookieName)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}
