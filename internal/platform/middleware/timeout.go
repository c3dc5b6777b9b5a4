package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const timeoutBody = "request processing exceeded the allowed time limit"

// RequestTimeout puts a deadline on every request context. The handler runs
// in its own goroutine; when the deadline fires first the caller gets a 504
// JSON envelope and the handler sees its context cancelled.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			result := make(chan error, 1)
			go func() { result <- next(c) }()

			select {
			case err := <-result:
				return err
			case <-ctx.Done():
			}

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// Skip the write if the handler already committed a response.
				if c.Response().Committed {
					return nil
				}
				return c.JSON(http.StatusGatewayTimeout, map[string]any{
					"success": false,
					"error":   timeoutBody,
				})
			}
			// Cancelled for another reason, typically client disconnect.
			return ctx.Err()
		}
	}
}
