package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

// DefaultBodyLimit applies when BODY_LIMIT is empty or unparseable.
const DefaultBodyLimit = "1M"

// BodyLimit caps request bodies at limit ("64K", "1M", "1MB" or a bare byte
// count). Oversized requests fail with 413, either up front from
// Content-Length or while the handler reads the body. The websocket upgrade
// carries no body and is skipped.
func BodyLimit(limit string) echo.MiddlewareFunc {
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: normalizeLimit(limit),
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/ws")
		},
	})
}

// normalizeLimit returns limit when it parses to a positive size and
// DefaultBodyLimit otherwise; echo panics on a malformed limit.
func normalizeLimit(limit string) string {
	limit = strings.TrimSpace(limit)
	n, err := bytes.Parse(limit)
	if err != nil || n <= 0 {
		return DefaultBodyLimit
	}
	return limit
}
