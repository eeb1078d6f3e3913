// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"
	"time"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/repository"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 分页返回用户列表，参数 page 从 1 开始。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	users, err := h.adminService.ListUsers(page, size)
	if err != nil {
		log.Errorf("ListUsers: Failed to list users, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取用户列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": users})
}

// ListChatRecords 查询所有用户的聊天记录。
// 可选参数：userId、category、start、end（YYYY-MM-DD，end 包含当天）、limit。
func (h *AdminHandler) ListChatRecords(c *gin.Context) {
	var filter repository.ChatRecordFilter

	userID, ok := parseUserIDQuery(c)
	if !ok {
		return
	}
	filter.UserID = userID

	if cat := c.Query("category"); cat != "" {
		if !classifier.Category(cat).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "未知的类别", "data": nil})
			return
		}
		filter.Category = cat
	}

	if s := c.Query("start"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid start format, use YYYY-MM-DD", "data": nil})
			return
		}
		filter.StartTime = &t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid end format, use YYYY-MM-DD", "data": nil})
			return
		}
		// 包含整天
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &t
	}
	if s := c.Query("limit"); s != "" {
		filter.Limit, _ = strconv.Atoi(s)
	}

	records, err := h.adminService.ListChatRecords(filter)
	if err != nil {
		log.Errorf("ListChatRecords: error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error(), "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}

// Stats 返回类别统计，可选参数 day（YYYY-MM-DD，默认今天）。
func (h *AdminHandler) Stats(c *gin.Context) {
	day := time.Now()
	if s := c.Query("day"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid day format, use YYYY-MM-DD", "data": nil})
			return
		}
		day = t
	}

	stats, err := h.adminService.Stats(c.Request.Context(), day)
	if err != nil {
		log.Errorf("Stats: error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取统计失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": stats})
}

// parseUserIDQuery 解析可选的 userId 查询参数，格式错误时直接写入 400 响应。
func parseUserIDQuery(c *gin.Context) (*uint, bool) {
	s := c.Query("userId")
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid user ID format", "data": nil})
		return nil, false
	}
	uid := uint(id)
	return &uid, true
}
