// Package auth resolves caller identity for the symptom-check API. The
// identity provider itself is external; this package only verifies bearer
// tokens it issued and exposes the authenticated user ID to handlers.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const userIDKey contextKey = "auth_user_id"

// JWTConfig holds JWT validation settings.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// UserIDFromContext returns the authenticated user ID, or "" if none.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a context carrying the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWTMiddleware validates the Authorization bearer token and stores the
// subject claim as the caller's user ID on both the request context and the
// echo context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set("user_id", sub)
			c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), sub)))
			return next(c)
		}
	}
}

// DevUserID is the identity assigned to every request in development mode.
const DevUserID = "00000000-0000-0000-0000-000000000001"

// DevAuthMiddleware grants every request a fixed development identity.
// Never use outside local development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", DevUserID)
			c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), DevUserID)))
			return next(c)
		}
	}
}
