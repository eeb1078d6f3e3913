// Package tasks defines the messages that are sent to Kafka.
package tasks

import (
	"strconv"
	"time"
)

// ChatClassifiedEvent is published once per persisted chat exchange.
type ChatClassifiedEvent struct {
	RecordID   uint      `json:"record_id"`
	UserID     uint      `json:"user_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	FollowUp   bool      `json:"follow_up"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key is used as the Kafka message key and the retry counter key.
func (e ChatClassifiedEvent) Key() string {
	return "chat-" + strconv.FormatUint(uint64(e.RecordID), 10)
}
