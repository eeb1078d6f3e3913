package model

import "time"

// QAPair 是 FAQ 知识库中的一条问答。
type QAPair struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Question  string    `gorm:"type:varchar(512);not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CreatedBy uint      `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (QAPair) TableName() string {
	return "qa_pairs"
}
