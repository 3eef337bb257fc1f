package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/flow"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindUnauthorized: http.StatusUnauthorized,
}

// ErrorHandler returns an echo.HTTPErrorHandler that renders errors as
// errorResponse. Errors it does not know are logged and reported as 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		var rle *flow.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds()))))
		}

		body := errorResponse{
			StatusCode: status,
			Message:    message,
			Error:      http.StatusText(status),
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			Path:       c.Request().URL.Path,
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error("write error response", zap.Error(werr))
		}
	}
}

func classify(err error) (int, any) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Messages
	}

	if flow.IsRateLimitError(err) {
		return http.StatusTooManyRequests, "Too many requests, please try again later"
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := kindStatus[de.Kind]; ok {
			return status, de.Message
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		if s, ok := msg.(string); ok || msg == nil {
			if s == "" {
				s = http.StatusText(he.Code)
			}
			return he.Code, s
		}
		return he.Code, msg
	}

	return http.StatusInternalServerError, "Internal server error"
}
