package handlers

import (
	"context"
	"net/http"
	"time"

	"lumi/internal/caching"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	pool     *pgxpool.Pool
	cacheSvc caching.CacheService // nil when Redis is not configured
	version  string
}

func NewHealthHandler(pool *pgxpool.Pool, cacheSvc caching.CacheService, version string) *HealthHandler {
	return &HealthHandler{pool: pool, cacheSvc: cacheSvc, version: version}
}

type healthStatus struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Checks   map[string]string `json:"checks"`
	Duration string            `json:"duration"`
}

// Check pings the backing stores. Database failure degrades the whole
// service; a Redis failure only degrades the checks map, since sessions and
// sign-in survive without the cache.
func (h *HealthHandler) Check(c echo.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := healthStatus{
		Status:  "ok",
		Version: h.version,
		Checks:  map[string]string{},
	}
	code := http.StatusOK

	if err := h.pool.Ping(ctx); err != nil {
		status.Checks["database"] = "down: " + err.Error()
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		status.Checks["database"] = "ok"
	}

	if h.cacheSvc != nil {
		if err := h.cacheSvc.Ping(ctx); err != nil {
			status.Checks["redis"] = "down: " + err.Error()
			if status.Status == "ok" {
				status.Status = "degraded"
			}
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	status.Duration = time.Since(start).String()
	return c.JSON(code, status)
}
