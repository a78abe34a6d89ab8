package handlers

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/services/servicestest"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

func newLoginContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == utils.CookieName {
			return cookie
		}
	}
	return nil
}

func TestLogin_IssuesToken(t *testing.T) {
	store := new(servicestest.MockObjectStore)
	store.On("ListBuckets", mock.Anything).Return([]string{"photos"}, nil)

	factory := new(servicestest.MockStoreFactory)
	factory.On("NewStore", mock.MatchedBy(func(creds services.Credentials) bool {
		return creds.AccessKey == "test-access" && creds.Endpoint == "play.min.io:9000" && creds.Region == "us-east-1"
	})).Return(store, nil)

	authService := services.NewAuthService(testSessionKey)
	handler := NewAuthHandler(authService, factory, "play.min.io:9000", "us-east-1", nil)

	c, rec := newLoginContext(`{"accessKey":"test-access","secretKey":"test-secret"}`)
	require.NoError(t, handler.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	creds, err := authService.DecryptCredentials(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "test-secret", creds.SecretKey)

	cookie := findCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, resp.Token, cookie.Value)
	assert.False(t, cookie.Secure)

	factory.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestLoginSetsSecureCookieOverTLS(t *testing.T) {
	store := new(servicestest.MockObjectStore)
	store.On("ListBuckets", mock.Anything).Return([]string{}, nil)
	factory := new(servicestest.MockStoreFactory)
	factory.On("NewStore", mock.Anything).Return(store, nil)

	c, rec := newLoginContext(`{"accessKey":"test-access","secretKey":"test-secret"}`)
	c.Request().TLS = &tls.ConnectionState{}

	handler := NewAuthHandler(services.NewAuthService(""), factory, "play.min.io:9000", "", nil)
	require.NoError(t, handler.Login(c))

	cookie := findCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	store := new(servicestest.MockObjectStore)
	store.On("ListBuckets", mock.Anything).Return(nil, errors.New("InvalidAccessKeyId"))
	factory := new(servicestest.MockStoreFactory)
	factory.On("NewStore", mock.Anything).Return(store, nil)

	handler := NewAuthHandler(services.NewAuthService(""), factory, "localhost:9000", "", nil)
	c, rec := newLoginContext(`{"accessKey":"bad","secretKey":"bad"}`)
	require.NoError(t, handler.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(rec))
}

func TestLogin_ValidatesBody(t *testing.T) {
	factory := new(servicestest.MockStoreFactory)
	handler := NewAuthHandler(services.NewAuthService(""), factory, "localhost:9000", "", nil)

	for _, body := range []string{`{"accessKey":"only"}`, `{`} {
		c, rec := newLoginContext(body)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	factory.AssertNotCalled(t, "NewStore", mock.Anything)
}

func TestLogoutClearsCookieWithMatchingSecurityAttributes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewAuthHandler(services.NewAuthService(""), new(servicestest.MockStoreFactory), "play.min.io:9000", "", nil)

	require.NoError(t, handler.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookie := findCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "", cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
}
