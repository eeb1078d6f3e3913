// Package pipeline 定义了聊天事件的异步处理流程。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"interviewiq-go/internal/model"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/tasks"
)

// CategoryCounter 按天累计各类别的消息数。
type CategoryCounter interface {
	IncrCategory(ctx context.Context, day time.Time, category string) error
}

// ChatIndexer 将聊天记录写入检索引擎。
type ChatIndexer interface {
	IndexChatRecord(ctx context.Context, doc model.ChatRecordDocument) error
}

// Processor 封装了聊天事件处理的所有依赖和逻辑。
type Processor struct {
	counter CategoryCounter
	indexer ChatIndexer
}

// NewProcessor 创建一个新的 Processor 实例，indexer 为 nil 时跳过索引步骤。
func NewProcessor(counter CategoryCounter, indexer ChatIndexer) *Processor {
	return &Processor{counter: counter, indexer: indexer}
}

// Process 先写索引再累计计数：索引写入是幂等的，重试时不会重复计数。
func (p *Processor) Process(ctx context.Context, event tasks.ChatClassifiedEvent) error {
	log.Infof("[Processor] 开始处理聊天事件, RecordID: %d, Category: %s", event.RecordID, event.Category)

	if p.indexer != nil {
		doc := model.ChatRecordDocument{
			RecordID:   event.RecordID,
			UserID:     event.UserID,
			Message:    event.Message,
			Response:   event.Response,
			Category:   event.Category,
			Confidence: event.Confidence,
			FollowUp:   event.FollowUp,
			CreatedAt:  event.CreatedAt,
		}
		if err := p.indexer.IndexChatRecord(ctx, doc); err != nil {
			return fmt.Errorf("index chat record %d: %w", event.RecordID, err)
		}
	}

	day := event.CreatedAt
	if day.IsZero() {
		day = time.Now()
	}
	if err := p.counter.IncrCategory(ctx, day, event.Category); err != nil {
		return fmt.Errorf("count category for record %d: %w", event.RecordID, err)
	}

	log.Infof("[Processor] 聊天事件处理完成, RecordID: %d", event.RecordID)
	return nil
}
