package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleMember = "member"
)

// ValidRole reports whether r is one of the account roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleMember
}

type contextKey string

const SessionKey contextKey = "session"

// Session is the authenticated caller of one request. It is created by the
// auth middleware from a verified token and is read-only for handlers.
type Session struct {
	UserID    uuid.UUID `json:"userId"`
	Role      string    `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HasRole reports whether the session satisfies one of roles. Admins
// satisfy every role.
func (s *Session) HasRole(roles ...string) bool {
	if s == nil {
		return false
	}
	if s.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext returns the caller's session, or nil for anonymous
// requests.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(SessionKey).(*Session)
	return s
}

// CurrentSession is SessionFromContext for an echo request.
func CurrentSession(c echo.Context) *Session {
	return SessionFromContext(c.Request().Context())
}

func setSession(c echo.Context, s *Session) {
	c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), s)))
}
