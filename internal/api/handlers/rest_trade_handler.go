package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswap/server/internal/models"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// RestTradeHandler handles REST requests for trade requests.
type RestTradeHandler struct {
	tradeService services.ITradeService
}

// NewRestTradeHandler creates a new RestTradeHandler.
func NewRestTradeHandler(tradeService services.ITradeService) *RestTradeHandler {
	return &RestTradeHandler{tradeService: tradeService}
}

type createTradeRequest struct {
	ReceiverID      string `json:"receiverId" binding:"required"`
	SenderSkillID   string `json:"senderSkillId" binding:"required"`
	ReceiverSkillID string `json:"receiverSkillId" binding:"required"`
	Message         string `json:"message"`
}

// CreateTrade handles POST /v1/trade
func (h *RestTradeHandler) CreateTrade(c *gin.Context) {
	senderID, ok := callerID(c)
	if !ok {
		return
	}

	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	receiverID, err := utils.ParseSixID(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiver ID format"})
		return
	}
	senderSkillID, err := utils.ParseSixID(req.SenderSkillID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sender skill ID format"})
		return
	}
	receiverSkillID, err := utils.ParseSixID(req.ReceiverSkillID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiver skill ID format"})
		return
	}

	trade, err := h.tradeService.Create(c.Request.Context(), senderID, receiverID, senderSkillID, receiverSkillID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trade)
}

type updateTradeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTradeStatus handles PATCH /v1/trade/:id/status
func (h *RestTradeHandler) UpdateTradeStatus(c *gin.Context) {
	actingUserID, ok := callerID(c)
	if !ok {
		return
	}

	tradeID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade ID format"})
		return
	}

	var req updateTradeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	trade, err := h.tradeService.UpdateStatus(c.Request.Context(), tradeID, actingUserID, models.TradeStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// GetTrade handles GET /v1/trade/:id. Only participants may view a trade.
func (h *RestTradeHandler) GetTrade(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tradeID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade ID format"})
		return
	}

	trade, err := h.tradeService.FindByID(c.Request.Context(), tradeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !trade.IsParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": services.ErrNotParticipant.Error()})
		return
	}

	c.JSON(http.StatusOK, trade)
}

// ListTrades handles GET /v1/trade, returning trades the caller participates in.
func (h *RestTradeHandler) ListTrades(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	trades, err := h.tradeService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": trades})
}
