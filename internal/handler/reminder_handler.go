package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/response"
)

// RunReminders triggers one sweep on demand.
func (h *Handler) RunReminders(c *gin.Context) {
	rep, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		h.log.Error("reminder sweep failed", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	if rep.MarkErrors != nil {
		h.log.Warn("reminder sweep could not mark rows", zap.Error(rep.MarkErrors))
	}
	response.JSON(c, http.StatusOK, gin.H{"ok": true, "sent": rep.Sent, "failed": rep.Failed})
}

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		response.JSON(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}
