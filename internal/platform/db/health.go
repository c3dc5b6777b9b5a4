package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingDeadline = 5 * time.Second

// PoolStats is the connection pool snapshot reported by the liveness
// endpoint.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

func snapshot(pool *pgxpool.Pool) PoolStats {
	s := pool.Stat()
	return PoolStats{
		TotalConns:      s.TotalConns(),
		IdleConns:       s.IdleConns(),
		AcquiredConns:   s.AcquiredConns(),
		MaxConns:        s.MaxConns(),
		AcquireCount:    s.AcquireCount(),
		AcquireDuration: s.AcquireDuration().String(),
		Healthy:         s.TotalConns() > 0,
	}
}

// CheckHealth pings the database with a short deadline.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingDeadline)
	defer cancel()
	return pool.Ping(pingCtx)
}

// LivenessHandler serves the process liveness endpoint: a database ping plus
// pool statistics. This is separate from the symptom-check health route,
// which probes the remote reasoning service instead.
func LivenessHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := snapshot(pool)
		err := CheckHealth(c.Request().Context(), pool)
		if err == nil {
			return c.JSON(http.StatusOK, echo.Map{
				"status": "healthy",
				"pool":   stats,
			})
		}

		stats.Healthy = false
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unhealthy",
			"error":  err.Error(),
			"pool":   stats,
		})
	}
}
