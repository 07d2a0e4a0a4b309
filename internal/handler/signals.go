package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"aviatorpro/internal/config"
	"aviatorpro/internal/models"
	"aviatorpro/internal/signal"
)

// SignalService is what the handler needs from signal.Manager.
type SignalService interface {
	Generate(ctx context.Context, platform string) *models.Signal
	Active(ctx context.Context, platform string) *models.Signal
	Recent(ctx context.Context, platform string, limit int) []models.Signal
	Preview(ctx context.Context, platform string) (*models.Signal, error)
}

type SignalHandler struct {
	Signals     SignalService
	Broadcaster *signal.Broadcaster
	Platforms   config.PlatformsConfig
	// RecentLimit is the page size when the query has no limit.
	RecentLimit int
	// OriginPatterns is passed to websocket.Accept; empty means same origin.
	OriginPatterns []string
	PingInterval   time.Duration
	Logger         *zap.Logger
}

func (h *SignalHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/signals/:platform")
	g.POST("/generate", h.generate)
	g.GET("/active", h.active)
	g.GET("/recent", h.recent)
	g.GET("/preview", h.preview)
	g.GET("/stream", h.stream)
}

// @Summary Generate the hourly signal
// @Description Returns the new signal, or no data when this hour already has one or there are no rounds.
// @Tags signals
// @Produce json
// @Param platform path string true "platform"
// @Success 200 {object} map[string]any
// @Router /api/v1/signals/{platform}/generate [post]
func (h *SignalHandler) generate(c *gin.Context) {
	if h.Signals == nil {
		Error(c, http.StatusInternalServerError, "signal service unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	sig := h.Signals.Generate(c.Request.Context(), platform)
	if sig == nil {
		Ok(c, nil, map[string]any{"generated": false})
		return
	}
	Ok(c, sig, map[string]any{"generated": true, "persisted": sig.Persisted()})
}

// @Summary Active signal
// @Tags signals
// @Produce json
// @Param platform path string true "platform"
// @Success 200 {object} map[string]any
// @Router /api/v1/signals/{platform}/active [get]
func (h *SignalHandler) active(c *gin.Context) {
	if h.Signals == nil {
		Error(c, http.StatusInternalServerError, "signal service unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	sig := h.Signals.Active(c.Request.Context(), platform)
	if sig == nil {
		Ok(c, nil, map[string]any{"active": false})
		return
	}
	Ok(c, sig, map[string]any{"active": true})
}

// @Summary Recent signals
// @Description Newest first, expired signals included.
// @Tags signals
// @Produce json
// @Param platform path string true "platform"
// @Param limit query int false "max items (default 20, max 500)"
// @Success 200 {object} map[string]any
// @Router /api/v1/signals/{platform}/recent [get]
func (h *SignalHandler) recent(c *gin.Context) {
	if h.Signals == nil {
		Error(c, http.StatusInternalServerError, "signal service unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	limit := signal.NormalizeRecentLimit(intQuery(c, "limit", h.RecentLimit))
	items := h.Signals.Recent(c.Request.Context(), platform, limit)
	Ok(c, items, map[string]any{"limit": limit, "count": len(items)})
}

// @Summary Live analysis preview
// @Description Analyzes the latest rounds without storing a signal.
// @Tags signals
// @Produce json
// @Param platform path string true "platform"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/signals/{platform}/preview [get]
func (h *SignalHandler) preview(c *gin.Context) {
	if h.Signals == nil {
		Error(c, http.StatusInternalServerError, "signal service unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	sig, err := h.Signals.Preview(c.Request.Context(), platform)
	if errors.Is(err, signal.ErrNoOutcomes) {
		Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sig, nil)
}

type streamMessage struct {
	Type string        `json:"type"`
	Data models.Signal `json:"data"`
}

// @Summary Signal stream
// @Description WebSocket. Sends the active signal as "snapshot", then every new signal as "signal".
// @Tags signals
// @Param platform path string true "platform"
// @Router /api/v1/signals/{platform}/stream [get]
func (h *SignalHandler) stream(c *gin.Context) {
	if h.Broadcaster == nil {
		Error(c, http.StatusServiceUnavailable, "stream unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	conn, err := websocket.Accept(rawWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		// Accept has already written the response.
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := conn.CloseRead(c.Request.Context())
	ch, unsubscribe := h.Broadcaster.Subscribe(platform, 0)
	defer unsubscribe()

	if h.Signals != nil {
		if sig := h.Signals.Active(ctx, platform); sig != nil {
			if err := h.write(ctx, conn, streamMessage{Type: "snapshot", Data: *sig}); err != nil {
				return
			}
		}
	}

	interval := h.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			if err := h.write(ctx, conn, streamMessage{Type: "signal", Data: sig}); err != nil {
				h.logDebug("signal stream write failed", platform, err)
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				h.logDebug("signal stream ping failed", platform, err)
				return
			}
		}
	}
}

// rawWriter returns the net/http writer under gin's. Accept writes the 101
// before hijacking, and gin refuses to hijack a written response.
func rawWriter(w gin.ResponseWriter) http.ResponseWriter {
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return w
}

func (h *SignalHandler) write(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}

func (h *SignalHandler) logDebug(msg, platform string, err error) {
	if h.Logger != nil {
		h.Logger.Debug(msg, zap.String("platform", platform), zap.Error(err))
	}
}
