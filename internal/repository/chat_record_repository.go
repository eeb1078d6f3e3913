package repository

import (
	"time"

	"interviewiq-go/internal/model"

	"gorm.io/gorm"
)

// ChatRecordFilter 是管理端查询聊天记录的过滤条件，零值表示不过滤。
type ChatRecordFilter struct {
	UserID    *uint
	Category  string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// ChatRecordRepository 定义了聊天记录的持久化操作。
type ChatRecordRepository interface {
	Create(record *model.ChatRecord) error
	FindByUser(userID uint, limit int) ([]model.ChatRecord, error)
	Find(filter ChatRecordFilter) ([]model.ChatRecord, error)
	CountByCategory() ([]model.CategoryCount, error)
}

type chatRecordRepository struct {
	db *gorm.DB
}

// NewChatRecordRepository 创建一个新的 ChatRecordRepository 实例。
func NewChatRecordRepository(db *gorm.DB) ChatRecordRepository {
	return &chatRecordRepository{db: db}
}

// Create 写入一条聊天记录，CreatedAt 为空时使用服务器时间。
func (r *chatRecordRepository) Create(record *model.ChatRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return r.db.Create(record).Error
}

// FindByUser 按创建时间倒序返回用户的聊天记录，limit <= 0 表示不限制。
func (r *chatRecordRepository) FindByUser(userID uint, limit int) ([]model.ChatRecord, error) {
	return r.Find(ChatRecordFilter{UserID: &userID, Limit: limit})
}

// Find 按过滤条件查询聊天记录，结果按创建时间倒序。
func (r *chatRecordRepository) Find(filter ChatRecordFilter) ([]model.ChatRecord, error) {
	query := r.db.Model(&model.ChatRecord{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []model.ChatRecord
	err := query.Order("created_at DESC").Order("id DESC").Find(&records).Error
	return records, err
}

// CountByCategory 统计每个类别的记录数。
func (r *chatRecordRepository) CountByCategory() ([]model.CategoryCount, error) {
	var counts []model.CategoryCount
	err := r.db.Model(&model.ChatRecord{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category").
		Scan(&counts).Error
	return counts, err
}
