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

// QAHandler 处理问答库的查询与管理请求。
type QAHandler struct {
	qaService service.QAService
}

// NewQAHandler 创建一个新的 QAHandler 实例。
func NewQAHandler(qaService service.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

// AskRequest 是问答查询的请求体。
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// QAPairRequest 是新增或修改问答的请求体。
type QAPairRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Ask 在问答库中查找答案，找不到时返回固定的提示语。
func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "question 不能为空", "data": nil})
		return
	}
	answer, err := h.qaService.Ask(req.Question)
	if err != nil {
		h.fail(c, "Ask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": answer})
}

// List 返回全部问答。
func (h *QAHandler) List(c *gin.Context) {
	pairs, err := h.qaService.List()
	if err != nil {
		h.fail(c, "List", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": pairs})
}

// Create 新增一条问答。
func (h *QAHandler) Create(c *gin.Context) {
	var req QAPairRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Answer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "question 和 answer 不能为空", "data": nil})
		return
	}
	pair, err := h.qaService.Create(req.Question, req.Answer, middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, "Create", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "问答创建成功", "data": pair})
}

// Update 修改一条问答。
func (h *QAHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req QAPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}
	pair, err := h.qaService.Update(id, req.Question, req.Answer)
	if err != nil {
		h.fail(c, "Update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "问答更新成功", "data": pair})
}

// Delete 删除一条问答。
func (h *QAHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.qaService.Delete(id); err != nil {
		h.fail(c, "Delete", err)
		return
	}
	log.Infof("Admin user '%s' deleted QA pair %d", adminName(c), id)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "问答删除成功", "data": nil})
}

func (h *QAHandler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrQANotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmptyQuestion):
		status = http.StatusBadRequest
	default:
		log.Errorf("QA %s: %v", op, err)
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error(), "data": nil})
}

func adminName(c *gin.Context) string {
	if u := middleware.CurrentUser(c); u != nil {
		return u.Username
	}
	return "unknown"
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的 ID", "data": nil})
		return 0, false
	}
	return uint(id), true
}
