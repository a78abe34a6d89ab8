package handlers

import (
	"errors"
	"net/http"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
)

// GetCredentials retrieves and validates credentials from the context
func GetCredentials(c echo.Context) (*services.Credentials, error) {
	val := c.Get(utils.ContextKeyCreds)
	if val == nil {
		return nil, errs.New(errs.ErrKindPermissionDenied, "unauthorized")
	}
	creds, ok := val.(*services.Credentials)
	if !ok {
		return nil, errs.New(errs.ErrKindPermissionDenied, "unauthorized")
	}
	return creds, nil
}

// StatusForKind maps an error kind onto the HTTP status the API answers with.
func StatusForKind(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindValidation:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusUnauthorized
	case errs.ErrKindNotFound, errs.ErrKindBucketNotFound:
		return http.StatusNotFound
	case errs.ErrKindConflict:
		return http.StatusConflict
	case errs.ErrKindUnsupported:
		return http.StatusNotImplemented
	case errs.ErrKindTransport:
		return http.StatusBadGateway
	case errs.ErrKindCancelled:
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a models.ErrorResponse.
func RespondError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return c.JSON(he.Code, models.ErrorResponse{Kind: errs.ErrKindUnknown.String(), Message: msg})
	}

	kind := errs.KindOf(err)
	msg := err.Error()
	var e *errs.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	return c.JSON(StatusForKind(kind), models.ErrorResponse{Kind: kind.String(), Message: msg})
}

// ErrorHandler renders every error escaping a handler as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	_ = RespondError(c, err)
}

func requestIsSecure(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return req.Header.Get("X-Forwarded-Proto") == "https"
}
