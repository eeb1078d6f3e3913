// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"interviewiq-go/internal/config"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 是单条消息处理失败后提交 offset 前的最大尝试次数。
const maxAttempts = 3

var retryBackoff = time.Second

// EventProcessor 处理一条聊天事件，消费者不关心具体实现。
type EventProcessor interface {
	Process(ctx context.Context, event tasks.ChatClassifiedEvent) error
}

// AttemptCounter 记录每条消息的失败次数，跨进程重启仍然有效。
type AttemptCounter interface {
	IncrAttempts(ctx context.Context, key string) (int64, error)
	ResetAttempts(ctx context.Context, key string) error
}

// Producer 负责发布聊天事件。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers(cfg.Brokers)...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond, // 聊天请求同步发布，默认 1s 的攒批会拖慢响应
			AllowAutoTopicCreation: true,
		},
	}
	log.Info("Kafka 生产者初始化成功")
	return p
}

// PublishChatEvent 发送一条聊天事件，以记录 ID 作为 key 保证同一记录落在同一分区。
func (p *Producer) PublishChatEvent(ctx context.Context, event tasks.ChatClassifiedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
	})
}

// Close 刷新并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动消费者循环，直到 ctx 被取消。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor EventProcessor, attempts AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}

		if !consume(ctx, m.Value, processor, attempts) {
			return
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

// consume 处理失败且未达到重试上限时原地重试，不前移 offset。
// 只有 ctx 被取消时返回 false。
func consume(ctx context.Context, value []byte, processor EventProcessor, attempts AttemptCounter) bool {
	for tried := 1; ; tried++ {
		if handleMessage(ctx, value, processor, attempts, tried) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryBackoff):
		}
	}
}

// handleMessage 处理一条原始消息，返回是否可以提交 offset。
// tried 是本进程内对该消息的第几次尝试，Redis 计数不可用时以它为准。
func handleMessage(ctx context.Context, value []byte, processor EventProcessor, attempts AttemptCounter, tried int) bool {
	var event tasks.ChatClassifiedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		// 消息格式错误，直接提交，避免阻塞队列
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(value))
		return true
	}

	if err := processor.Process(ctx, event); err != nil {
		log.Errorw("处理聊天事件失败", "key", event.Key(), "error", err)
		n, incErr := attempts.IncrAttempts(ctx, event.Key())
		if incErr != nil {
			log.Error("记录失败次数失败，改用进程内计数", incErr)
			n = int64(tried)
		}
		if n >= maxAttempts {
			log.Errorf("聊天事件多次失败(>=%d)，提交 offset 终止重试: %s", maxAttempts, event.Key())
			_ = attempts.ResetAttempts(ctx, event.Key())
			return true
		}
		return false
	}

	_ = attempts.ResetAttempts(ctx, event.Key())
	return true
}

func brokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
