package httpapi

import (
	"errors"
	"net/http"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/reporting"
	"phonebank-training/internal/telephony"
	"phonebank-training/pkg/logger"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors onto status codes. Validation messages are
// returned to the caller; storage and provider details are only logged.
func writeError(c *gin.Context, err error) {
	var perr *telephony.ProviderError
	switch {
	case errors.Is(err, calls.ErrValidation), errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, calls.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		logger.FromGin(c).Warn("call provider failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "call provider request failed"})
	case errors.Is(err, telephony.ErrNotConfigured):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "call provider not configured"})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
