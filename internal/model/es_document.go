package model

import "time"

// ChatRecordDocument 是写入 Elasticsearch 的聊天记录文档。
type ChatRecordDocument struct {
	RecordID   uint      `json:"record_id"`
	UserID     uint      `json:"user_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	FollowUp   bool      `json:"follow_up"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatSearchHit 是一条搜索结果。
type ChatSearchHit struct {
	ChatRecordDocument
	Score float64 `json:"score"`
}
