package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswap/server/internal/services"
	"skillswap/server/internal/storage"
	"skillswap/server/internal/utils"
)

// RestChatHandler handles REST requests for chat history and attachments.
type RestChatHandler struct {
	chatService services.IChatService
	s3Storage   storage.IS3Storage
}

// NewRestChatHandler creates a new RestChatHandler.
func NewRestChatHandler(chatService services.IChatService, s3Storage storage.IS3Storage) *RestChatHandler {
	return &RestChatHandler{chatService: chatService, s3Storage: s3Storage}
}

// GetHistory handles GET /v1/chat/:trade_id/history. Fetching history marks
// the caller's unread messages in the trade as read.
func (h *RestChatHandler) GetHistory(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tradeID, err := utils.ParseSixID(c.Param("trade_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade ID format"})
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), tradeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

// GetUnreadCount handles GET /v1/chat/unread-count
func (h *RestChatHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	total, err := h.chatService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	conversations, err := h.chatService.UnreadBySender(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCount":    total,
		"conversations": conversations,
	})
}

type attachmentUploadRequest struct {
	TradeID     string `json:"tradeId" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// CreateAttachmentUpload handles POST /v1/chat/attachment. It returns a
// presigned PUT URL; the client uploads directly to object storage and then
// references the returned key in a chat message.
func (h *RestChatHandler) CreateAttachmentUpload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req attachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if _, err := utils.ParseSixID(req.TradeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trade ID format"})
		return
	}

	url, key, err := h.s3Storage.GeneratePresignedPutURL(c.Request.Context(), userID.String(), req.TradeID, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": url,
		"key":       key,
	})
}
