// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"context"
	"strings"

	"interviewiq-go/internal/model"
	"interviewiq-go/pkg/es"
	"interviewiq-go/pkg/log"
)

// ChatSearcher 是全文检索聊天记录的能力，*es.Client 实现了该接口。
type ChatSearcher interface {
	SearchChatRecords(ctx context.Context, q es.SearchQuery) ([]model.ChatSearchHit, int64, error)
}

// SearchResult 是聊天记录检索的返回体。
type SearchResult struct {
	Hits  []model.ChatSearchHit `json:"hits"`
	Total int64                 `json:"total"`
}

// SearchService 接口定义了搜索操作。
type SearchService interface {
	SearchChats(ctx context.Context, q es.SearchQuery) (*SearchResult, error)
}

type searchService struct {
	searcher ChatSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。searcher 为 nil 时检索不可用。
func NewSearchService(searcher ChatSearcher) SearchService {
	return &searchService{searcher: searcher}
}

// SearchChats 按关键字、类别和用户检索聊天记录。
func (s *searchService) SearchChats(ctx context.Context, q es.SearchQuery) (*SearchResult, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	q.Text = strings.TrimSpace(q.Text)
	log.Infof("[SearchService] 检索聊天记录, text: '%s', category: '%s'", q.Text, q.Category)

	hits, total, err := s.searcher.SearchChatRecords(ctx, q)
	if err != nil {
		log.Errorf("[SearchService] 检索失败: %v", err)
		return nil, err
	}
	if hits == nil {
		hits = []model.ChatSearchHit{}
	}
	return &SearchResult{Hits: hits, Total: total}, nil
}
