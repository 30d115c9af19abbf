package handlers

import (
	"net/http"

	"github.com/01moynul/resell-golang/internal/middleware"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// SubmitQuote is the public trade-in form. Signed-in callers get the quote
// attached to their account.
func (h *Handlers) SubmitQuote(c *gin.Context) {
	var input models.SubmitQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var owner *int64
	if id, ok := middleware.UserID(c); ok {
		owner = &id
	}

	quote, err := h.Services.TradeIn.SubmitQuote(c.Request.Context(), input, owner)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Quote request received",
		"quote":   quote,
	})
}

func (h *Handlers) ListQuotes(c *gin.Context) {
	var filter models.QuoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quotes, err := h.Services.TradeIn.ListQuotes(c.Request.Context(), filter)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func (h *Handlers) GetQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	quote, err := h.Services.TradeIn.GetQuote(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ReviewQuote sets the offered price and moves the quote to REVIEWED.
func (h *Handlers) ReviewQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input models.ReviewQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.Services.TradeIn.ReviewQuote(c.Request.Context(), id, input.FinalPrice)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CloseQuote moves the quote to COMPLETED or REJECTED.
func (h *Handlers) CloseQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input models.CloseQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.Services.TradeIn.CloseQuote(c.Request.Context(), id, input.Outcome)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
