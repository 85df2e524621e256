package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/config"
)

// TrackingHandler reports the snapshot location.
type TrackingHandler struct {
	cfg config.SnapshotConfig
}

// NewTrackingHandler creates the handler.
func NewTrackingHandler(cfg config.SnapshotConfig) *TrackingHandler {
	return &TrackingHandler{cfg: cfg}
}

// Snapshot reports whether the snapshot file exists and where.
func (h *TrackingHandler) Snapshot(c *gin.Context) {
	_, err := os.Stat(h.cfg.Path)
	c.JSON(http.StatusOK, gin.H{
		"exists": err == nil,
		"path":   h.cfg.Path,
	})
}
