package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/dsa-assistant/domain"
	"github.com/satriahrh/dsa-assistant/utils/log"
)

const (
	msgInvalidBody     = "Invalid request body"
	msgNotFound        = "Endpoint not found"
	msgInternal        = "Something went wrong!"
	msgBodyTooLarge    = "Request body too large"
	msgUnauthenticated = "Missing or invalid session token"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

// MapError converts a service error into a status code and payload. Upstream
// and internal detail is only included when expose is set.
func MapError(err error, expose bool) (int, ErrorResponse) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, ErrorResponse{Error: vErr.Message}
	}

	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		resp := ErrorResponse{Error: "Failed to " + upErr.Op}
		if expose {
			resp.Details = upErr.Err.Error()
		}
		return http.StatusInternalServerError, resp
	}

	resp := ErrorResponse{Error: msgInternal}
	if expose {
		resp.Message = err.Error()
	}
	return http.StatusInternalServerError, resp
}

// NewHTTPErrorHandler renders errors that escape the handlers: unmatched
// routes, middleware rejections, panics and anything unexpected.
func NewHTTPErrorHandler(expose bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorPayload(err, c, expose)
		if status >= http.StatusInternalServerError {
			log.WithCtx(c.Request().Context()).Error("Unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.WithCtx(c.Request().Context()).Error("Writing error response", zap.Error(writeErr))
		}
	}
}

func errorPayload(err error, c echo.Context, expose bool) (int, ErrorResponse) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return MapError(err, expose)
	}

	switch {
	case he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed:
		return http.StatusNotFound, ErrorResponse{
			Error:   msgNotFound,
			Message: fmt.Sprintf("Cannot %s %s", c.Request().Method, c.Request().URL.RequestURI()),
		}
	case he.Code == http.StatusRequestEntityTooLarge:
		return he.Code, ErrorResponse{Error: msgBodyTooLarge}
	case he.Code >= http.StatusInternalServerError:
		resp := ErrorResponse{Error: msgInternal}
		if expose && he.Internal != nil {
			resp.Message = he.Internal.Error()
		}
		return he.Code, resp
	default:
		return he.Code, ErrorResponse{Error: fmt.Sprint(he.Message)}
	}
}
