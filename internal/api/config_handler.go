package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/config"
)

// ConfigHandler reloads runtime configuration on demand.
type ConfigHandler struct {
	holder *config.Holder
}

// NewConfigHandler creates the handler.
func NewConfigHandler(holder *config.Holder) *ConfigHandler {
	return &ConfigHandler{holder: holder}
}

// Reload re-reads configuration from the environment. Engines built
// from the previous snapshot keep it; only holder readers observe the
// new values.
func (h *ConfigHandler) Reload(c *gin.Context) {
	if _, err := h.holder.Reload(); err != nil {
		middleware.LoggerFromContext(c).Error("config reload failed", slog.Any("error", err))
		Internal(c, "config reload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}
