package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterDocs serves a short operator guide at /docs.
func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# AviatorPro Signal Service

Derives betting signals from the recent crash multipliers of two Aviator
platforms. Only one platform is live per hour (even hours and odd hours of
the gate timezone), and at most one signal is stored per platform per hour.

## Signals

- POST /api/v1/signals/{platform}/generate
- GET /api/v1/signals/{platform}/active
- GET /api/v1/signals/{platform}/recent?limit=20
- GET /api/v1/signals/{platform}/preview
- GET /api/v1/signals/{platform}/stream (websocket)

## Outcomes

- POST /api/v1/outcomes
- GET /api/v1/outcomes/{platform}?limit=50

## Platforms

- GET /api/v1/platforms
- GET /api/v1/platforms/{platform}/window

## Operations

- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html
- GET /api/v1/system-settings/switches
- PUT /api/v1/system-settings/switches/{name}
`)
	})
}
