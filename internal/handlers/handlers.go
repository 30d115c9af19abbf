package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/resell-golang/internal/apperr"
	"github.com/01moynul/resell-golang/internal/middleware"
	"github.com/01moynul/resell-golang/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Services *service.Services
	Log      logrus.FieldLogger
}

func New(services *service.Services, log logrus.FieldLogger) *Handlers {
	return &Handlers{Services: services, Log: log}
}

// pageQuery is the ?limit=&offset= pair for lists without other filters.
// The model filters carry the same gte=0 rule.
type pageQuery struct {
	Limit  int `form:"limit" binding:"gte=0"`
	Offset int `form:"offset" binding:"gte=0"`
}

// parseID reads the ":id" path parameter. It writes the 400 itself.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// actorID returns the staff id set by AuthMiddleware.
func actorID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return 0, false
	}
	return id, true
}

// errorResponse maps a service error onto a status code. Persistence
// failures keep their sanitized message; the cause only goes to the log.
func (h *Handlers) errorResponse(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrAlreadySold),
		errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		entry := h.Log.WithField("method", c.Request.Method).WithField("path", c.FullPath())
		var pe *apperr.PersistenceError
		if errors.As(err, &pe) {
			entry = entry.WithError(pe.Err).WithField("op", pe.Op)
		} else {
			entry = entry.WithError(err)
		}
		entry.Error("request failed")

		msg := "Internal server error"
		if pe != nil {
			msg = pe.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
