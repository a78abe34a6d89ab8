package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF())
	e.GET("/csrf", func(c echo.Context) error {
		token, _ := c.Get("csrf").(string)
		return c.String(http.StatusOK, token)
	})
	e.DELETE("/api/buckets/b/objects", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	return e
}

func TestCSRFMiddlewareRejectsCookieSessionWithoutToken(t *testing.T) {
	e := newCSRFServer()

	req := httptest.NewRequest(http.MethodDelete, "/api/buckets/b/objects?key=a", nil)
	req.AddCookie(&http.Cookie{Name: utils.CookieName, Value: "session"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSRFMiddlewareSkipsBearerRequests(t *testing.T) {
	e := newCSRFServer()

	req := httptest.NewRequest(http.MethodDelete, "/api/buckets/b/objects?key=a", nil)
	req.Header.Set(echo.HeaderAuthorization, utils.BearerPrefix+"token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRFMiddlewareAllowsCookieSessionWithToken(t *testing.T) {
	e := newCSRFServer()

	getReq := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code)
	token := strings.TrimSpace(getRec.Body.String())
	require.NotEmpty(t, token)

	var csrfCookie *http.Cookie
	for _, cookie := range getRec.Result().Cookies() {
		if cookie.Name == "csrf" {
			csrfCookie = cookie
			break
		}
	}
	require.NotNil(t, csrfCookie)

	req := httptest.NewRequest(http.MethodDelete, "/api/buckets/b/objects?key=a", nil)
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(csrfCookie)
	req.AddCookie(&http.Cookie{Name: utils.CookieName, Value: "session"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
