package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAuth(t *testing.T, authService *services.AuthService, req *http.Request) (*httptest.ResponseRecorder, *services.Credentials, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var contextCreds *services.Credentials
	handlerCalled := false
	handler := func(c echo.Context) error {
		handlerCalled = true
		if val, ok := c.Get(utils.ContextKeyCreds).(*services.Credentials); ok {
			contextCreds = val
		}
		return c.String(http.StatusOK, "OK")
	}

	require.NoError(t, AuthMiddleware(authService)(handler)(c))
	return rec, contextCreds, handlerCalled
}

func TestAuthMiddleware_SkipsPublicRoutes(t *testing.T) {
	authService := services.NewAuthService("")

	for _, path := range []string{"/health", "/api/login", "/api/logout"} {
		t.Run(path, func(t *testing.T) {
			_, _, called := runAuth(t, authService, httptest.NewRequest(http.MethodPost, path, nil))
			assert.True(t, called, "handler should be called for public path %s", path)
		})
	}
}

func TestAuthMiddleware_RejectsWithoutToken(t *testing.T) {
	rec, _, called := runAuth(t, services.NewAuthService(""), httptest.NewRequest(http.MethodGet, "/api/buckets/b/objects", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"kind":"permission_denied","message":"missing API token"}`, rec.Body.String())
}

func TestAuthMiddleware_AcceptsBearerToken(t *testing.T) {
	authService := services.NewAuthService("")
	creds := services.Credentials{Endpoint: "localhost:9000", AccessKey: "admin", SecretKey: "password"}
	token, err := authService.EncryptCredentials(creds)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/buckets/b/objects", nil)
	req.Header.Set(echo.HeaderAuthorization, utils.BearerPrefix+token)
	_, got, called := runAuth(t, authService, req)

	assert.True(t, called)
	require.NotNil(t, got)
	assert.Equal(t, creds.Endpoint, got.Endpoint)
	assert.Equal(t, creds.AccessKey, got.AccessKey)
	assert.Equal(t, creds.SecretKey, got.SecretKey)
}

func TestAuthMiddleware_AcceptsCookie(t *testing.T) {
	authService := services.NewAuthService("")
	token, err := authService.EncryptCredentials(services.Credentials{AccessKey: "admin", SecretKey: "password"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/buckets/b/objects", nil)
	req.AddCookie(&http.Cookie{Name: utils.CookieName, Value: token})
	_, got, called := runAuth(t, authService, req)

	assert.True(t, called)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.AccessKey)
}

func TestAuthMiddleware_RejectsTokenFromAnotherKey(t *testing.T) {
	token, err := services.NewAuthService("").EncryptCredentials(services.Credentials{AccessKey: "admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/buckets/b/objects", nil)
	req.Header.Set(echo.HeaderAuthorization, utils.BearerPrefix+token)
	rec, _, called := runAuth(t, services.NewAuthService(""), req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	for _, cookie := range rec.Result().Cookies() {
		assert.NotEqual(t, utils.CookieName, cookie.Name, "bearer failures must not touch the cookie")
	}
}

func TestAuthMiddleware_ClearsInvalidCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/buckets/b/objects", nil)
	req.AddCookie(&http.Cookie{Name: utils.CookieName, Value: "invalid-encrypted-value"})
	rec, _, called := runAuth(t, services.NewAuthService(""), req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var foundClearCookie bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == utils.CookieName && cookie.MaxAge == -1 {
			foundClearCookie = true
			break
		}
	}
	assert.True(t, foundClearCookie, "should set cookie with MaxAge=-1 to clear it")
}
