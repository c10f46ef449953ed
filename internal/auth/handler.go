package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

type tokenRequest struct {
	Email string `json:"email"`
}

func cookieSecure() bool {
	return os.Getenv("COOKIE_SECURE") == "true"
}

// ===== IssueCookie =====
// POST /jwt: signs a session token for the given email and sets it as
// an HTTP-only cookie.
func IssueCookie(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	signed, err := IssueToken(req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(TokenTTL),
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteNoneMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ===== Logout =====
// POST /logout: clears the session cookie.
func Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteNoneMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
