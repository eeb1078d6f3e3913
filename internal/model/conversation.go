// Package model 包含了应用的数据模型定义。
package model

import "time"

// ChatMessage 代表存储在 Redis 会话上下文中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRecord 是一次问答交互的持久化记录，仅在请求携带用户身份时写入。
type ChatRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index:idx_chat_user_created,priority:1;not null" json:"userId"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Response   string    `gorm:"type:text;not null" json:"response"`
	Category   string    `gorm:"type:varchar(32);index;not null" json:"category"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	FollowUp   bool      `gorm:"not null;default:false" json:"followUp"`
	CreatedAt  time.Time `gorm:"index:idx_chat_user_created,priority:2;autoCreateTime" json:"timestamp"`
}

func (ChatRecord) TableName() string {
	return "chat_records"
}

// CategoryCount 是按类别聚合的记录数。
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
