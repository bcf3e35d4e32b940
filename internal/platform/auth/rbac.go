// Package auth carries role information from the request boundary to the
// handlers and enforces the coarse role gate on mutating operations.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrForbidden is returned when a caller's role is not in the allow-set.
var ErrForbidden = errors.New("role not permitted")

type contextKey string

const userRolesKey contextKey = "user_roles"

// Mutating operations are open to clinic staff who bill: doctors and
// managers. Everyone else is read-only.
var allowedRoles = map[string]bool{
	"doctor":  true,
	"manager": true,
}

// CheckRole validates a single role against the allow-set,
// case-insensitively.
func CheckRole(role string) error {
	if allowedRoles[strings.ToLower(strings.TrimSpace(role))] {
		return nil
	}
	return ErrForbidden
}

// WithRoles returns a context carrying the caller's roles.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, userRolesKey, roles)
}

// RolesFromContext returns the roles attached by the extraction middleware.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(userRolesKey).([]string)
	return roles
}

// RequireRole gates a route group on the billing allow-set. It runs after
// role extraction and before any handler side effect.
func RequireRole() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, role := range RolesFromContext(c.Request().Context()) {
				if CheckRole(role) == nil {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "requires doctor or manager role")
		}
	}
}
