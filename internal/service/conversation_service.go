// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/pkg/log"

	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	exportURLExpiry     = 24 * time.Hour
)

// ObjectStore 是导出聊天历史所需的对象存储能力，*storage.Store 实现了该接口。
type ObjectStore interface {
	PutObject(ctx context.Context, objectName, contentType string, data []byte) (int64, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ExportResult 是历史导出的结果。
type ExportResult struct {
	ObjectName string    `json:"objectName"`
	URL        string    `json:"url"`
	Records    int       `json:"records"`
	Size       int64     `json:"size"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ConversationService 定义了聊天历史与会话上下文相关的业务操作。
type ConversationService interface {
	GetHistory(userID uint, limit int) ([]model.ChatRecord, error)
	GetSession(ctx context.Context, userID uint) ([]model.ChatMessage, error)
	ClearSession(ctx context.Context, userID uint) error
	ExportHistory(ctx context.Context, userID uint) (*ExportResult, error)
}

type conversationService struct {
	recordRepo       repository.ChatRecordRepository
	conversationRepo repository.ConversationRepository
	store            ObjectStore
}

// NewConversationService 创建一个新的 ConversationService。store 为 nil 时导出功能不可用。
func NewConversationService(recordRepo repository.ChatRecordRepository, conversationRepo repository.ConversationRepository, store ObjectStore) ConversationService {
	return &conversationService{
		recordRepo:       recordRepo,
		conversationRepo: conversationRepo,
		store:            store,
	}
}

// GetHistory 返回用户最近的聊天记录，按时间倒序。
func (s *conversationService) GetHistory(userID uint, limit int) ([]model.ChatRecord, error) {
	return s.recordRepo.FindByUser(userID, normalizeLimit(limit))
}

// GetSession 获取用户当前会话的消息上下文。
func (s *conversationService) GetSession(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	conversationID, err := s.conversationRepo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.conversationRepo.GetConversationHistory(ctx, conversationID)
}

// ClearSession 清空用户当前会话，下一条消息将开启新会话。
func (s *conversationService) ClearSession(ctx context.Context, userID uint) error {
	return s.conversationRepo.ClearConversation(ctx, userID)
}

// ExportHistory 将用户的全部聊天记录导出为 JSON 并上传到对象存储，返回临时下载链接。
func (s *conversationService) ExportHistory(ctx context.Context, userID uint) (*ExportResult, error) {
	if s.store == nil {
		return nil, ErrExportUnavailable
	}

	records, err := s.recordRepo.Find(repository.ChatRecordFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("load chat records: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode chat records: %w", err)
	}

	objectName := fmt.Sprintf("exports/%d/%s.json", userID, uuid.NewString())
	size, err := s.store.PutObject(ctx, objectName, "application/json", data)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignedURL(ctx, objectName, exportURLExpiry)
	if err != nil {
		return nil, err
	}
	log.Infow("[ConversationService] 聊天历史导出完成", "userId", userID, "object", objectName, "records", len(records))

	return &ExportResult{
		ObjectName: objectName,
		URL:        url,
		Records:    len(records),
		Size:       size,
		ExpiresAt:  time.Now().Add(exportURLExpiry),
	}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
