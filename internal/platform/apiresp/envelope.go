// Package apiresp renders every JSON response in the {isSuccess, message,
// data} envelope the web client expects, including errors.
package apiresp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/platform/validation"
)

// FallbackMessage is shown to users when a failure carries no message.
const FallbackMessage = "Đã có lỗi xảy ra, vui lòng thử lại sau."

// Envelope is the uniform response body.
type Envelope struct {
	IsSuccess bool        `json:"isSuccess"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{IsSuccess: true, Message: message, Data: data})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{IsSuccess: true, Message: message, Data: data})
}

// Classify maps an error returned by a handler to a status code, message
// and optional payload.
func Classify(err error) (int, string, interface{}) {
	var ve validation.Errors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "invalid request", ve
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch m := he.Message.(type) {
		case validation.Errors:
			return he.Code, "invalid request", m
		case string:
			if m == "" {
				return he.Code, FallbackMessage, nil
			}
			return he.Code, m, nil
		case nil:
			return he.Code, FallbackMessage, nil
		default:
			return he.Code, fmt.Sprint(m), nil
		}
	}

	return http.StatusInternalServerError, FallbackMessage, nil
}

// ErrorHandler returns an echo.HTTPErrorHandler writing failures as an
// Envelope with isSuccess=false.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message, data := Classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, Envelope{IsSuccess: false, Message: message, Data: data})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}
