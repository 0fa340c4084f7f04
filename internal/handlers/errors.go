package handlers

import (
	"errors"
	"net/http"

	"sports-prediction/internal/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service-layer errors onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		resolved   *services.AlreadyResolvedError
		config     *services.ConfigurationError
		deprecated *services.DeprecatedOperationError
		storage    *services.PersistenceError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &resolved):
		c.JSON(http.StatusConflict, gin.H{"error": resolved.Error()})
	case errors.As(err, &config):
		c.JSON(http.StatusBadRequest, gin.H{"error": config.Error()})
	case errors.As(err, &deprecated):
		c.JSON(http.StatusGone, gin.H{"error": deprecated.Error()})
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyJoined),
		errors.Is(err, services.ErrMarketNotJoinable),
		errors.Is(err, services.ErrTransactionFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &storage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
