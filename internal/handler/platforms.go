package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"aviatorpro/internal/config"
	"aviatorpro/internal/signal"
)

type PlatformHandler struct {
	Platforms config.PlatformsConfig
	Gate      signal.Gate
	Clock     func() time.Time
}

func (h *PlatformHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/platforms")
	g.GET("", h.list)
	g.GET("/:platform/window", h.window)
}

func (h *PlatformHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

type platformView struct {
	Name   string `json:"name"`
	Hours  string `json:"hours"`
	Active bool   `json:"active"`
}

// @Summary List platforms
// @Description Configured platforms and which one is inside its live window.
// @Tags platforms
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/platforms [get]
func (h *PlatformHandler) list(c *gin.Context) {
	now := h.now()
	items := []platformView{
		{Name: h.Platforms.EvenHour, Hours: "even", Active: h.Gate.IsPlatformWindowActive(h.Platforms.EvenHour, now)},
		{Name: h.Platforms.OddHour, Hours: "odd", Active: h.Gate.IsPlatformWindowActive(h.Platforms.OddHour, now)},
	}
	Ok(c, items, map[string]any{
		"active_platform": h.Gate.ActivePlatform(now),
		"next_switch":     h.Gate.NextSwitch(now),
	})
}

// @Summary Platform window
// @Tags platforms
// @Produce json
// @Param platform path string true "platform"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/platforms/{platform}/window [get]
func (h *PlatformHandler) window(c *gin.Context) {
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	now := h.now()
	Ok(c, map[string]any{
		"platform":        platform,
		"active":          h.Gate.IsPlatformWindowActive(platform, now),
		"active_platform": h.Gate.ActivePlatform(now),
		"next_switch":     h.Gate.NextSwitch(now),
		"checked_at":      now,
	}, nil)
}
