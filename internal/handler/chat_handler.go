// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"interviewiq-go/internal/middleware"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatHandler 负责处理聊天请求，包括 REST 接口和 WebSocket 连接。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// ChatRequest 是聊天接口的请求体。空消息是合法输入，会得到兜底回复。
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat 处理一次聊天请求。匿名请求只返回分类结果，不保存任何记录。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	reply := h.chatService.Chat(c.Request.Context(), req.Message, middleware.CurrentUser(c))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": reply})
}

// wsMessage 是 WebSocket 上收发的消息格式。
type wsMessage struct {
	Type    string             `json:"type"`
	Message string             `json:"message,omitempty"`
	Data    *service.ChatReply `json:"data,omitempty"`
	Time    int64              `json:"timestamp"`
}

// Handle 处理一个传入的 WebSocket 连接，token 通过路径参数传递。
// 客户端可以发送纯文本，也可以发送 {"message": "..."}，每条消息对应一条 JSON 回复。
func (h *ChatHandler) Handle(c *gin.Context) {
	user, ok := middleware.ResolveUser(c, c.Param("token"), h.jwtManager, h.userService)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", user.Username)

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := h.chatService.Chat(c.Request.Context(), parseWSMessage(raw), user)
		out := wsMessage{Type: "response", Data: reply, Time: time.Now().UnixMilli()}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			log.Warnf("向 WebSocket 写入回复失败: %v", err)
			break
		}
	}
	log.Infof("WebSocket 连接已关闭，用户: %s", user.Username)
}

// parseWSMessage 从 JSON 消息中取出 message 字段，非 JSON 时整条作为消息文本。
func parseWSMessage(raw []byte) string {
	if len(raw) > 0 && raw[0] == '{' {
		var in wsMessage
		if err := json.Unmarshal(raw, &in); err == nil {
			return in.Message
		}
	}
	return string(raw)
}
