package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthReport is the health endpoint payload. A reachable database with no
// slot table still cannot take bookings, so schema readiness is reported
// alongside connectivity.
type HealthReport struct {
	Status    string     `json:"status"`
	Database  bool       `json:"database"`
	SlotTable bool       `json:"slot_table"`
	Error     string     `json:"error,omitempty"`
	Pool      *PoolStats `json:"pool"`
}

// PoolStats is a snapshot of the connection pool. EmptyAcquireCount grows
// when booking requests wait for a free connection; a climbing value means
// the pool is undersized for the contention.
type PoolStats struct {
	TotalConns        int32 `json:"total_conns"`
	IdleConns         int32 `json:"idle_conns"`
	AcquiredConns     int32 `json:"acquired_conns"`
	MaxConns          int32 `json:"max_conns"`
	EmptyAcquireCount int64 `json:"empty_acquire_count"`
}

// Stats snapshots the pool counters.
func Stats(pool *pgxpool.Pool) *PoolStats {
	s := pool.Stat()
	return &PoolStats{
		TotalConns:        s.TotalConns(),
		IdleConns:         s.IdleConns(),
		AcquiredConns:     s.AcquiredConns(),
		MaxConns:          s.MaxConns(),
		EmptyAcquireCount: s.EmptyAcquireCount(),
	}
}

// HealthHandler serves the health endpoint: pings the database and checks
// that the slot table exists, returning 503 when either fails.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := &HealthReport{Status: "healthy", Pool: Stats(pool)}

		if err := pool.Ping(ctx); err != nil {
			report.Status = "unhealthy"
			report.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		report.Database = true

		var slotTable *string
		err := pool.QueryRow(ctx, `SELECT to_regclass('slot')::text`).Scan(&slotTable)
		if err == nil && slotTable != nil {
			report.SlotTable = true
		}
		if !report.SlotTable {
			report.Status = "unhealthy"
			report.Error = "slot table missing, run migrations"
			return c.JSON(http.StatusServiceUnavailable, report)
		}

		return c.JSON(http.StatusOK, report)
	}
}
