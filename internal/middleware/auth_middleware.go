package middleware

import (
	"net/http"
	"strings"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
)

var publicPaths = map[string]bool{
	"/health":     true,
	"/api/login":  true,
	"/api/logout": true,
}

// AuthMiddleware accepts an API token from the Authorization header or the
// IronSeal cookie and stores the decrypted credentials in the context.
func AuthMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if publicPaths[c.Request().URL.Path] {
				return next(c)
			}

			token, fromCookie := requestToken(c)
			if token == "" {
				return unauthorized(c, "missing API token")
			}

			creds, err := authService.DecryptCredentials(token)
			if err != nil {
				if fromCookie {
					// Invalid cookie - clear it so the client stops sending it
					c.SetCookie(&http.Cookie{Name: utils.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
				}
				return unauthorized(c, "invalid or expired API token")
			}

			c.Set(utils.ContextKeyCreds, creds)
			return next(c)
		}
	}
}

// requestToken prefers the bearer header over the cookie.
func requestToken(c echo.Context) (token string, fromCookie bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, utils.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(auth, utils.BearerPrefix)), false
	}
	cookie, err := c.Cookie(utils.CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Kind: "permission_denied", Message: msg})
}
