package handlers

import (
	"net/http"

	"github.com/01moynul/resell-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// RecordSale converts an available unit into a sale. A unit that is
// already sold answers 409.
func (h *Handlers) RecordSale(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}

	var input models.RecordSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sale, err := h.Services.Sales.RecordSale(c.Request.Context(), staffID, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *Handlers) ListSales(c *gin.Context) {
	var filter models.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sales, err := h.Services.Sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (h *Handlers) GetSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sale, err := h.Services.Sales.GetSale(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handlers) UpdateSale(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input models.UpdateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sale, err := h.Services.Sales.UpdateSale(c.Request.Context(), staffID, id, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale (admin) voids a sale and puts the unit back on sale.
func (h *Handlers) DeleteSale(c *gin.Context) {
	staffID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Services.Sales.DeleteSale(c.Request.Context(), staffID, id); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
