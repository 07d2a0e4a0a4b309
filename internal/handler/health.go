package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"aviatorpro/internal/db"
)

// ReadinessCheck reports one dependency. A nil error means healthy.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	Checks  []ReadinessCheck
	Timeout time.Duration
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Description Pings the database and, when enabled, Redis and NATS.
// @Tags health
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for _, chk := range h.Checks {
		if chk.Check == nil {
			continue
		}
		if err := chk.Check(ctx); err != nil {
			deps[chk.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[chk.Name] = "ok"
	}
	label := "ready"
	if status != http.StatusOK {
		label = "degraded"
	}
	c.JSON(status, gin.H{"status": label, "dependencies": deps})
}

func DBCheck(conn *db.DB) ReadinessCheck {
	return ReadinessCheck{Name: "db", Check: func(ctx context.Context) error {
		return db.Ping(ctx, conn)
	}}
}

func RedisCheck(client goredis.UniversalClient) ReadinessCheck {
	return ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis missing")
		}
		return client.Ping(ctx).Err()
	}}
}

func NATSCheck(connected func() bool) ReadinessCheck {
	return ReadinessCheck{Name: "nats", Check: func(context.Context) error {
		if connected == nil || !connected() {
			return errors.New("nats disconnected")
		}
		return nil
	}}
}
