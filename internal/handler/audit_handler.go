package handler

import (
	"net/http"

	"absensi/internal/access"
	"absensi/internal/middleware"
	"absensi/internal/service"
	"absensi/pkg/pagination"
	"absensi/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	gate         *access.Gate
}

func NewAuditHandler(auditService service.AuditService, gate *access.Gate) *AuditHandler {
	return &AuditHandler{auditService: auditService, gate: gate}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/admin/audit-logs")
	group.Use(middleware.RequirePage(h.gate, access.AdminPage))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns registrations, profile edits and check-ins, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/admin/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Envelope("logs", logs, total)))
}
