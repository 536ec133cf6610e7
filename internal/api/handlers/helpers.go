package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/api/middleware"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// callerID extracts the authenticated user's ID from the Gin context.
// AuthMiddleware guarantees the key is set on protected routes.
func callerID(c *gin.Context) (utils.SixID, bool) {
	idStr := c.GetString(middleware.ContextKeyUserID)
	id, err := utils.ParseSixID(idStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return utils.SixID{}, false
	}
	return id, true
}

// respondServiceError maps service errors to HTTP responses. Precondition
// conflicts (duplicate trade, duplicate review) are reported as 400 alongside
// the validation errors, not 409.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrSelfTrade),
		errors.Is(err, services.ErrDuplicateTrade),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidReviewText),
		errors.Is(err, services.ErrTradeNotCompleted),
		errors.Is(err, services.ErrInvalidReviewee),
		errors.Is(err, services.ErrDuplicateReview),
		errors.Is(err, services.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
