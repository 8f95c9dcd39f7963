package api

import (
	"net/http"

	"sfu-globe/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler 俱乐部消息
type ChatHandler struct {
	messageService *service.MessageService
}

func NewChatHandler(messageService *service.MessageService) *ChatHandler {
	return &ChatHandler{messageService: messageService}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// 发送消息。界面不在本地追加，等 INSERT 事件回来再显示
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	clubID, ok := getUUIDParam(c, "club_id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	message, err := h.messageService.Send(c.Request.Context(), userID, clubID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// 获取聊天历史记录
func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	clubID, ok := getUUIDParam(c, "club_id")
	if !ok {
		return
	}
	limit, since, ok := getHistoryParams(c)
	if !ok {
		return
	}

	messages, err := h.messageService.History(c.Request.Context(), userID, clubID, limit, since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetMessage 收到 INSERT 事件后重新读取单条消息
func (h *ChatHandler) GetMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	messageID, ok := getUUIDParam(c, "id")
	if !ok {
		return
	}
	message, err := h.messageService.Get(c.Request.Context(), userID, messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
