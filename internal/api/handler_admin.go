package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"pataalerta/internal/model"
)

// AdminHeader carries the moderation token.
const AdminHeader = "X-Admin-Token"

// requireAdmin rejects requests without the configured token. An empty token
// leaves the admin routes open.
func requireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(AdminHeader)), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// ListAdminAlerts handles GET /api/admin/alerts.
func (h *Handler) ListAdminAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.ListAdmin(c.Request.Context()))
}

// ListReports handles GET /api/admin/reports.
func (h *Handler) ListReports(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.ListReports(c.Request.Context()))
}

type statusRequest struct {
	Status model.AlertStatus `json:"status" binding:"required"`
}

// UpdateAlertStatus handles PATCH /api/admin/alerts/:id.
func (h *Handler) UpdateAlertStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if res := h.repo.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); res.Failure != nil {
		abortWithFailure(c, res.Failure)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAlert handles DELETE /api/admin/alerts/:id.
func (h *Handler) DeleteAlert(c *gin.Context) {
	if res := h.repo.Remove(c.Request.Context(), c.Param("id")); res.Failure != nil {
		abortWithFailure(c, res.Failure)
		return
	}
	c.Status(http.StatusNoContent)
}
