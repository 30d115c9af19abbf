package handlers

import (
	"net/http"

	"github.com/01moynul/resell-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// CreateUnit registers a new unit in stock.
func (h *Handlers) CreateUnit(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}

	var input models.CreateUnitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.Services.Units.CreateUnit(c.Request.Context(), staffID, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (h *Handlers) GetUnit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	unit, err := h.Services.Units.GetUnit(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// UpdateUnit applies a partial update. The serial cannot be changed.
func (h *Handlers) UpdateUnit(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input models.UpdateUnitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.Services.Units.UpdateUnit(c.Request.Context(), staffID, id, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

func (h *Handlers) DeleteUnit(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Services.Units.DeleteUnit(c.Request.Context(), staffID, id); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUnits supports ?brand=&status=&q=&limit=&offset=.
func (h *Handlers) ListUnits(c *gin.Context) {
	var filter models.UnitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := h.Services.Units.ListUnits(c.Request.Context(), filter)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}
