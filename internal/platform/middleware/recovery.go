package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
)

// Recovery turns a handler panic into a 500 carrying the generic client
// message, so the error handler still renders the usual envelope.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}

				req := c.Request()
				rid, _ := c.Get("request_id").(string)
				logger.Error().
					Err(perr).
					Str("request_id", rid).
					Str("method", req.Method).
					Str("route", c.Path()).
					Str("uri", req.RequestURI).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				if c.Response().Committed {
					// Headers are gone; nothing useful can be written.
					err = nil
					return
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, apiresp.FallbackMessage).
					SetInternal(errors.Join(errPanic, perr))
			}()
			return next(c)
		}
	}
}

var errPanic = errors.New("recovered panic")
