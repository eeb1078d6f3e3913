// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"time"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/metrics"
	"interviewiq-go/pkg/tasks"
)

// MessageClassifier 是聊天服务依赖的分类能力，*classifier.Classifier 实现了该接口。
type MessageClassifier interface {
	Classify(message string) classifier.Result
}

// EventPublisher 发布聊天事件，供异步统计与索引使用。
type EventPublisher interface {
	PublishChatEvent(ctx context.Context, event tasks.ChatClassifiedEvent) error
}

// ChatReply 是聊天接口的返回体。匿名请求不落库，因此没有 ID 和时间戳。
type ChatReply struct {
	ID         *uint               `json:"id,omitempty"`
	Category   classifier.Category `json:"category"`
	Response   string              `json:"response"`
	Confidence float64             `json:"confidence"`
	FollowUp   bool                `json:"followUp"`
	Timestamp  *time.Time          `json:"timestamp,omitempty"`
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	Chat(ctx context.Context, message string, user *model.User) *ChatReply
}

type chatService struct {
	classifier       MessageClassifier
	recordRepo       repository.ChatRecordRepository
	conversationRepo repository.ConversationRepository
	publisher        EventPublisher
}

// NewChatService 创建一个新的 ChatService 实例。conversationRepo 与 publisher 可以为 nil。
func NewChatService(c MessageClassifier, recordRepo repository.ChatRecordRepository, conversationRepo repository.ConversationRepository, publisher EventPublisher) ChatService {
	return &chatService{
		classifier:       c,
		recordRepo:       recordRepo,
		conversationRepo: conversationRepo,
		publisher:        publisher,
	}
}

// Chat 对消息分类并生成回复。该方法总会返回结果：分类异常降级为兜底回复，
// 持久化、会话与事件发布失败只记录日志。
func (s *chatService) Chat(ctx context.Context, message string, user *model.User) *ChatReply {
	result := s.classify(message)
	metrics.RecordClassification(string(result.Category), result.FollowUp, result.Confidence)

	reply := &ChatReply{
		Category:   result.Category,
		Response:   result.Response,
		Confidence: result.Confidence,
		FollowUp:   result.FollowUp,
	}
	if user == nil {
		return reply
	}

	record := &model.ChatRecord{
		UserID:     user.ID,
		Message:    message,
		Response:   result.Response,
		Category:   string(result.Category),
		Confidence: result.Confidence,
		FollowUp:   result.FollowUp,
		CreatedAt:  time.Now(),
	}
	if err := s.recordRepo.Create(record); err != nil {
		log.Errorw("[ChatService] 保存聊天记录失败", "userId", user.ID, "error", err)
		return reply
	}
	reply.ID = &record.ID
	reply.Timestamp = &record.CreatedAt

	s.appendToSession(ctx, user.ID, message, result, record.CreatedAt)
	s.publish(ctx, record)
	return reply
}

// classify 是分类的错误边界：任何 panic 都被转换为兜底结果。
func (s *chatService) classify(message string) (result classifier.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("[ChatService] 消息分类发生异常", "panic", r)
			metrics.RecordClassificationError()
			result = classifier.Fallback()
		}
	}()
	return s.classifier.Classify(message)
}

func (s *chatService) appendToSession(ctx context.Context, userID uint, message string, result classifier.Result, at time.Time) {
	if s.conversationRepo == nil {
		return
	}
	convID, err := s.conversationRepo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		log.Errorf("[ChatService] 获取会话 ID 失败: %v", err)
		return
	}
	err = s.conversationRepo.AppendConversationMessages(ctx, convID,
		model.ChatMessage{Role: "user", Content: message, Timestamp: at},
		model.ChatMessage{Role: "assistant", Content: result.Response, Category: string(result.Category), Timestamp: at},
	)
	if err != nil {
		log.Errorf("[ChatService] 保存会话上下文失败: %v", err)
	}
}

func (s *chatService) publish(ctx context.Context, record *model.ChatRecord) {
	if s.publisher == nil {
		return
	}
	event := tasks.ChatClassifiedEvent{
		RecordID:   record.ID,
		UserID:     record.UserID,
		Message:    record.Message,
		Response:   record.Response,
		Category:   record.Category,
		Confidence: record.Confidence,
		FollowUp:   record.FollowUp,
		CreatedAt:  record.CreatedAt,
	}
	if err := s.publisher.PublishChatEvent(ctx, event); err != nil {
		log.Errorw("[ChatService] 发布聊天事件失败", "recordId", record.ID, "error", err)
	}
}
