package handlers

import (
	"net/http"

	"github.com/01moynul/resell-golang/internal/middleware"
	"github.com/01moynul/resell-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// OpenTicket is the public support form. Anonymous tickets have owner 0.
func (h *Handlers) OpenTicket(c *gin.Context) {
	var input models.OpenTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID, _ := middleware.UserID(c)
	ticket, err := h.Services.Repair.OpenTicket(c.Request.Context(), ownerID, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Repair ticket created",
		"ticketNumber": ticket.TicketNumber,
		"ticket":       ticket,
	})
}

// ListTickets supports ?queue=&serviceType=&status=&limit=&offset=.
func (h *Handlers) ListTickets(c *gin.Context) {
	var filter models.TicketFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tickets, err := h.Services.Repair.ListTickets(c.Request.Context(), filter)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *Handlers) GetTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ticket, err := h.Services.Repair.GetTicket(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *Handlers) AdvanceTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input models.AdvanceTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ticket, err := h.Services.Repair.AdvanceTicket(c.Request.Context(), id, input.Status)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *Handlers) CancelTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ticket, err := h.Services.Repair.CancelTicket(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// AnnotateTicket records staff notes and the estimated cost.
func (h *Handlers) AnnotateTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input models.AnnotateTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ticket, err := h.Services.Repair.AnnotateTicket(c.Request.Context(), id, input)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
