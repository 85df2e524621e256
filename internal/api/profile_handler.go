package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/profiles"
)

// ProfileHandler exposes profile ingestion.
type ProfileHandler struct {
	service *profiles.Service
}

// NewProfileHandler creates the handler.
func NewProfileHandler(service *profiles.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Ingest stores a new profile version.
func (h *ProfileHandler) Ingest(c *gin.Context) {
	var req profiles.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	version, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		middleware.LoggerFromContext(c).Error("profile ingest failed", slog.Any("error", err))
		Internal(c, "failed to ingest profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile_version_id": version})
}
