package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are infrastructure endpoints that never need a session and
// are excluded from rate limiting and request metrics labels.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
	"/metrics":   true,
}

// InfraSkipper reports whether the matched route is a public
// infrastructure endpoint.
func InfraSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}
