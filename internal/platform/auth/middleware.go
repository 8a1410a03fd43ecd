package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type JWTConfig struct {
	Tokens      *TokenIssuer
	Revocations RevocationList
	Logger      zerolog.Logger
}

// JWTMiddleware attaches a Session for requests carrying a valid bearer
// token. Requests without an Authorization header continue anonymously;
// RequireAuth and RequireRole decide whether that is acceptable.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			s, err := cfg.Tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(c.Request().Context(), s.TokenID)
				if err != nil {
					cfg.Logger.Error().Err(err).Msg("revocation check failed")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "session has ended")
				}
			}

			setSession(c, s)
			return next(c)
		}
	}
}

// Development headers understood by DevAuthMiddleware.
const (
	DevUserHeader = "X-Dev-User"
	DevRoleHeader = "X-Dev-Role"
)

// DevAuthMiddleware lets local clients act as any user by sending
// X-Dev-User and X-Dev-Role instead of a token. Bearer tokens are still
// verified through next.
func DevAuthMiddleware(next echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(h echo.HandlerFunc) echo.HandlerFunc {
		verified := next(h)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				return verified(c)
			}
			userID, err := uuid.Parse(c.Request().Header.Get(DevUserHeader))
			role := c.Request().Header.Get(DevRoleHeader)
			if err != nil || !ValidRole(role) {
				return h(c)
			}
			setSession(c, &Session{UserID: userID, Role: role, TokenID: "dev-" + userID.String()})
			return h(c)
		}
	}
}
