package handlers

import (
	"net/http"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService  *services.AuthService
	storeFactory services.StoreFactory
	endpoint     string
	region       string
	log          *logger.Logger
}

func NewAuthHandler(authService *services.AuthService, storeFactory services.StoreFactory, endpoint, region string, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{
		authService:  authService,
		storeFactory: storeFactory,
		endpoint:     endpoint,
		region:       region,
		log:          log,
	}
}

// Login verifies store credentials and issues a token. The token is returned
// in the body for bearer use and also set as a cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return RespondError(c, errs.Wrap(errs.ErrKindValidation, "invalid login request", err))
	}
	if req.AccessKey == "" || req.SecretKey == "" {
		return RespondError(c, errs.New(errs.ErrKindValidation, "accessKey and secretKey are required"))
	}

	creds := services.Credentials{
		Endpoint:     h.endpoint,
		Region:       h.region,
		AccessKey:    req.AccessKey,
		SecretKey:    req.SecretKey,
		SessionToken: req.SessionToken,
	}

	store, err := h.storeFactory.NewStore(creds)
	if err != nil {
		return RespondError(c, err)
	}

	// ListBuckets works for every user, admin or not
	if _, err := store.ListBuckets(c.Request().Context()); err != nil {
		h.log.Warn().Str("access_key", req.AccessKey).Err(err).Msg("login rejected")
		return RespondError(c, errs.Wrap(errs.ErrKindPermissionDenied, "invalid credentials or endpoint unreachable", err))
	}

	token, err := h.authService.EncryptCredentials(creds)
	if err != nil {
		return RespondError(c, errs.Wrap(errs.ErrKindUnknown, "failed to create session", err))
	}

	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = token
	cookie.Expires = time.Now().Add(services.TokenTTL)
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)

	h.log.Info().Str("access_key", req.AccessKey).Msg("login")
	return c.JSON(http.StatusOK, models.LoginResponse{Token: token})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = ""
	cookie.Expires = time.Now().Add(-1 * time.Hour)
	cookie.MaxAge = -1
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)
	return c.NoContent(http.StatusNoContent)
}
