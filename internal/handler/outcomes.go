package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aviatorpro/internal/config"
	"aviatorpro/internal/repository"
	"aviatorpro/internal/service"
)

const maxOutcomeList = 500

type OutcomeHandler struct {
	Ingest    *service.OutcomeIngestService
	Repo      repository.OutcomeRepository
	Platforms config.PlatformsConfig
}

func (h *OutcomeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/outcomes")
	g.POST("", h.ingest)
	g.GET("/:platform", h.list)
}

// @Summary Ingest round outcomes
// @Description Accepts one record or an array. Invalid records are rejected individually.
// @Tags outcomes
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/v1/outcomes [post]
func (h *OutcomeHandler) ingest(c *gin.Context) {
	if h.Ingest == nil {
		Error(c, http.StatusInternalServerError, "ingest service unavailable", nil)
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	records, err := service.DecodeRecords(body)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	res, err := h.Ingest.Ingest(c.Request.Context(), "http", records)
	switch {
	case errors.Is(err, service.ErrIngestDisabled):
		Error(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// @Summary Recent outcomes
// @Tags outcomes
// @Produce json
// @Param platform path string true "platform"
// @Param limit query int false "max items (default 50, max 500)"
// @Success 200 {object} map[string]any
// @Router /api/v1/outcomes/{platform} [get]
func (h *OutcomeHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	platform, ok := platformParam(c, h.Platforms)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > maxOutcomeList {
		limit = maxOutcomeList
	}
	items, err := h.Repo.ListRecentOutcomes(c.Request.Context(), platform, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": limit, "count": len(items)})
}
