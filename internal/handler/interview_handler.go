package handler

import (
	"errors"
	"net/http"
	"time"

	"interviewiq-go/internal/middleware"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// InterviewHandler 处理当前用户面试日程的增删改查。
type InterviewHandler struct {
	interviewService service.InterviewService
}

// NewInterviewHandler 创建一个新的 InterviewHandler 实例。
func NewInterviewHandler(interviewService service.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

// InterviewRequest 是创建或修改面试的请求体，date 使用 RFC 3339 格式。
type InterviewRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Duration    *int       `json:"duration" binding:"omitempty,min=0"`
	Type        *string    `json:"type"`
}

func (r InterviewRequest) input() service.InterviewInput {
	return service.InterviewInput{
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Duration:    r.Duration,
		Type:        r.Type,
	}
}

// Create 为当前用户新建一场面试。
func (h *InterviewHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req InterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}
	interview, err := h.interviewService.Create(user.ID, req.input())
	if err != nil {
		h.fail(c, "Create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": http.StatusCreated, "message": "面试创建成功", "data": interview})
}

// List 返回当前用户的全部面试。
func (h *InterviewHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	interviews, err := h.interviewService.List(user.ID)
	if err != nil {
		h.fail(c, "List", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": interviews})
}

// Get 返回当前用户的一场面试。
func (h *InterviewHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	interview, err := h.interviewService.Get(middleware.CurrentUser(c).ID, id)
	if err != nil {
		h.fail(c, "Get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": interview})
}

// Update 修改当前用户的一场面试，未提供的字段保持原值。
func (h *InterviewHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req InterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}
	interview, err := h.interviewService.Update(middleware.CurrentUser(c).ID, id, req.input())
	if err != nil {
		h.fail(c, "Update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "面试更新成功", "data": interview})
}

// Delete 删除当前用户的一场面试。
func (h *InterviewHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.interviewService.Delete(middleware.CurrentUser(c).ID, id); err != nil {
		h.fail(c, "Delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "面试删除成功", "data": nil})
}

func (h *InterviewHandler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInterviewNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInterview):
		status = http.StatusBadRequest
	default:
		log.Errorf("Interview %s: %v", op, err)
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error(), "data": nil})
}
