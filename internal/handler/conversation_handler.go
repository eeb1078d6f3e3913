// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"interviewiq-go/internal/middleware"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理聊天历史与会话上下文相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetHistory 返回当前用户最近的聊天记录，可选参数 limit。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "limit 必须是整数", "data": nil})
			return
		}
		limit = n
	}

	records, err := h.service.GetHistory(user.ID, limit)
	if err != nil {
		log.Errorf("GetHistory: Failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to retrieve chat history",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    records,
	})
}

// GetSession 返回当前用户会话上下文中的消息。
func (h *ConversationHandler) GetSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	messages, err := h.service.GetSession(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("GetSession: Failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to retrieve conversation session",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": messages})
}

// ClearSession 清空当前用户的会话上下文。
func (h *ConversationHandler) ClearSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.service.ClearSession(c.Request.Context(), user.ID); err != nil {
		log.Errorf("ClearSession: Failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "清空会话失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "会话已清空", "data": nil})
}

// ExportHistory 导出当前用户的全部聊天记录，返回临时下载链接。
func (h *ConversationHandler) ExportHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)
	result, err := h.service.ExportHistory(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrExportUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("ExportHistory: Failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "导出失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}
