package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 5 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check returns a readiness check for the database. Each ping gets its own
// deadline so a stuck pool cannot hold the readiness endpoint.
func Check(p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

// PoolReport is the connection pool section of GET /health/db.
type PoolReport struct {
	Total       int32  `json:"total"`
	Idle        int32  `json:"idle"`
	InUse       int32  `json:"inUse"`
	Max         int32  `json:"max"`
	Acquires    int64  `json:"acquires"`
	WaitedTotal string `json:"waitedTotal"`
}

func reportPool(s *pgxpool.Stat) PoolReport {
	return PoolReport{
		Total:       s.TotalConns(),
		Idle:        s.IdleConns(),
		InUse:       s.AcquiredConns(),
		Max:         s.MaxConns(),
		Acquires:    s.AcquireCount(),
		WaitedTotal: s.AcquireDuration().String(),
	}
}

type dbHealthResponse struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Pool   PoolReport `json:"pool"`
}

// HealthHandler serves GET /health/db: a ping plus pool counters.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	check := Check(pool)
	return func(c echo.Context) error {
		resp := dbHealthResponse{Status: "ok"}
		code := http.StatusOK
		if err := check(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		}
		resp.Pool = reportPool(pool.Stat())
		return c.JSON(code, resp)
	}
}
