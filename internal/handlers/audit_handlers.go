package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAudit (admin) returns the most recent audit entries first.
func (h *Handlers) ListAudit(c *gin.Context) {
	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.Services.Audit.ListRecent(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
