package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// RestMatchHandler handles REST requests for skill compatibility scoring.
type RestMatchHandler struct {
	matchService services.IMatchService
}

// NewRestMatchHandler creates a new RestMatchHandler.
func NewRestMatchHandler(matchService services.IMatchService) *RestMatchHandler {
	return &RestMatchHandler{matchService: matchService}
}

// GetCompatibility handles GET /v1/match/:user_id, scoring the caller's
// wanted skills against the target user's offered skills.
func (h *RestMatchHandler) GetCompatibility(c *gin.Context) {
	requesterID, ok := callerID(c)
	if !ok {
		return
	}

	counterpartID, err := utils.ParseSixID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	result, err := h.matchService.Compatibility(c.Request.Context(), requesterID, counterpartID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
