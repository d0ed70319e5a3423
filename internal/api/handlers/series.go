package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharunaditya/certserver/internal/config"
)

// SeriesHandler serves the series catalog
type SeriesHandler struct {
	config *config.Config
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(cfg *config.Config) *SeriesHandler {
	return &SeriesHandler{config: cfg}
}

// ListSeries returns the configured series
// GET /v1/series
func (h *SeriesHandler) ListSeries(c *gin.Context) {
	series := h.config.Policy.Series
	if series == nil {
		series = []config.SeriesConfig{}
	}

	RespondSuccess(c, gin.H{
		"series":        series,
		"default_parts": h.config.Policy.DefaultParts,
	})
}
