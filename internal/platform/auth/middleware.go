package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims is the token payload issued to clinic staff.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// RoleExtractor attaches the caller's roles to the request context. When a
// Bearer token is presented and a signing secret is configured, roles come
// from the verified token; otherwise the plain X-Role header is used.
// Extraction never rejects a request — enforcement belongs to RequireRole.
func RoleExtractor(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var roles []string

			authHeader := c.Request().Header.Get("Authorization")
			if len(secret) > 0 && strings.HasPrefix(authHeader, "Bearer ") {
				raw := strings.TrimPrefix(authHeader, "Bearer ")
				claims := &Claims{}
				token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
					}
					return secret, nil
				})
				if err == nil && token.Valid {
					roles = claims.Roles
				}
			}

			if len(roles) == 0 {
				if role := c.Request().Header.Get("X-Role"); role != "" {
					roles = []string{role}
				}
			}

			ctx := WithRoles(c.Request().Context(), roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevRoleMiddleware grants the doctor role to unauthenticated requests.
// Development only.
func DevRoleMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(RolesFromContext(c.Request().Context())) == 0 {
				ctx := WithRoles(c.Request().Context(), []string{"doctor"})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
