package model

import "time"

// Interview 是用户为自己安排的一场面试（或模拟面试）。
type Interview struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	// Duration 以分钟计
	Duration  int       `json:"duration"`
	Type      string    `gorm:"type:varchar(32)" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Interview) TableName() string {
	return "interviews"
}
