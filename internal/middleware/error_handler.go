package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketRepricer/pkg/logger"
	jsonres "marketRepricer/pkg/response"
)

// ErrorHandler is the echo HTTPErrorHandler: it keeps echo's status codes
// but normalizes every error body to the shared envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	_ = c.JSON(code, jsonres.Error(http.StatusText(code), message, nil))
}
