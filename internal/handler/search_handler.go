package handler

import (
	"errors"
	"net/http"
	"strconv"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/es"
	"interviewiq-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchChats 全文检索聊天记录，参数 query、category、userId、size 均为可选。
func (h *SearchHandler) SearchChats(c *gin.Context) {
	q := es.SearchQuery{Text: c.Query("query")}
	log.Infof("[SearchHandler] 收到聊天检索请求, query: %s", q.Text)

	if cat := c.Query("category"); cat != "" {
		if !classifier.Category(cat).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "未知的类别", "data": nil})
			return
		}
		q.Category = cat
	}
	userID, ok := parseUserIDQuery(c)
	if !ok {
		return
	}
	q.UserID = userID
	if size, err := strconv.Atoi(c.DefaultQuery("size", "20")); err == nil && size > 0 {
		q.Size = size
	}

	result, err := h.searchService.SearchChats(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrSearchUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("[SearchHandler] 检索服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "搜索失败", "data": nil})
		return
	}

	log.Infof("[SearchHandler] 检索成功, query: '%s', 返回 %d 条结果", q.Text, len(result.Hits))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}
