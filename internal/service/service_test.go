package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/pkg/tasks"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "service.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.ChatRecord{}, &model.QAPair{}, &model.Interview{}))
	return db
}

// memConversations 是 ConversationRepository 的内存实现。
type memConversations struct {
	mu      sync.Mutex
	current map[uint]string
	history map[string][]model.ChatMessage
	err     error
}

func newMemConversations() *memConversations {
	return &memConversations{
		current: map[uint]string{},
		history: map[string][]model.ChatMessage{},
	}
}

func (m *memConversations) GetOrCreateConversationID(_ context.Context, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	id, ok := m.current[userID]
	if !ok {
		id = "conv-" + time.Now().Format("150405.000000000")
		m.current[userID] = id
	}
	return id, nil
}

func (m *memConversations) GetConversationHistory(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ChatMessage{}, m.history[conversationID]...), nil
}

func (m *memConversations) AppendConversationMessages(_ context.Context, conversationID string, messages ...model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := append(m.history[conversationID], messages...)
	if len(history) > repository.MaxConversationMessages {
		history = history[len(history)-repository.MaxConversationMessages:]
	}
	m.history[conversationID] = history
	return nil
}

func (m *memConversations) ClearConversation(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.current[userID]; ok {
		delete(m.history, id)
		delete(m.current, userID)
	}
	return nil
}

type memTokens struct {
	revoked map[string]time.Duration
	err     error
}

func (m *memTokens) Blacklist(_ context.Context, tokenID string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Duration{}
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *memTokens) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

type memStats struct {
	daily map[string]int64
	err   error
}

func (m *memStats) IncrCategory(_ context.Context, _ time.Time, category string) error {
	if m.daily == nil {
		m.daily = map[string]int64{}
	}
	m.daily[category]++
	return nil
}

func (m *memStats) GetCategoryCounts(_ context.Context, _ time.Time) (map[string]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.daily, nil
}

func (m *memStats) IncrAttempts(context.Context, string) (int64, error) { return 1, nil }
func (m *memStats) ResetAttempts(context.Context, string) error          { return nil }

type recordingPublisher struct {
	events []tasks.ChatClassifiedEvent
	err    error
}

func (p *recordingPublisher) PublishChatEvent(_ context.Context, event tasks.ChatClassifiedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// failingRecords 让写入总是失败，用于验证聊天主流程不受持久化影响。
type failingRecords struct {
	repository.ChatRecordRepository
}

func (failingRecords) Create(*model.ChatRecord) error {
	return errors.New("db down")
}
