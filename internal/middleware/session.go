package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/repairhub/internal/auth"
)

// SessionGuard requires a valid session cookie and stores the verified
// email on the context for downstream ownership checks.
func SessionGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
		}

		claims, err := auth.VerifyToken(cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			}
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		c.Set("email", claims.Email)
		return next(c)
	}
}
