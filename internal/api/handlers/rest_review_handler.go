package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// RestReviewHandler handles REST requests for reviews.
type RestReviewHandler struct {
	reviewService services.IReviewService
}

// NewRestReviewHandler creates a new RestReviewHandler.
func NewRestReviewHandler(reviewService services.IReviewService) *RestReviewHandler {
	return &RestReviewHandler{reviewService: reviewService}
}

type submitReviewRequest struct {
	TradeRequestID string `json:"tradeRequestId" binding:"required"`
	RevieweeID     string `json:"revieweeId" binding:"required"`
	Rating         int    `json:"rating" binding:"required"`
	Review         string `json:"review" binding:"required"`
}

// SubmitReview handles POST /v1/review
func (h *RestReviewHandler) SubmitReview(c *gin.Context) {
	reviewerID, ok := callerID(c)
	if !ok {
		return
	}

	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	tradeID, err := utils.ParseSixID(req.TradeRequestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade request ID format"})
		return
	}
	revieweeID, err := utils.ParseSixID(req.RevieweeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewee ID format"})
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), tradeID, reviewerID, revieweeID, req.Rating, req.Review)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetUserReviews handles GET /v1/review/user/:id with page/page_size paging.
func (h *RestReviewHandler) GetUserReviews(c *gin.Context) {
	userID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := h.reviewService.ListForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTradeReviews handles GET /v1/review/trade/:id. Only trade participants
// may view the reviews of a trade.
func (h *RestReviewHandler) GetTradeReviews(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tradeID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade ID format"})
		return
	}

	reviews, err := h.reviewService.ListForTrade(c.Request.Context(), tradeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reviews})
}
