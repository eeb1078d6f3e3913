package repository

import (
	"strings"

	"interviewiq-go/internal/model"

	"gorm.io/gorm"
)

// QARepository 定义了 FAQ 问答对的持久化操作。
type QARepository interface {
	Create(pair *model.QAPair) error
	Update(pair *model.QAPair) error
	Delete(id uint) error
	FindByID(id uint) (*model.QAPair, error)
	FindAll() ([]model.QAPair, error)
	MatchQuestion(question string) (*model.QAPair, error)
}

type qaRepository struct {
	db *gorm.DB
}

// NewQARepository 创建一个新的 QARepository 实例。
func NewQARepository(db *gorm.DB) QARepository {
	return &qaRepository{db: db}
}

func (r *qaRepository) Create(pair *model.QAPair) error {
	return r.db.Create(pair).Error
}

func (r *qaRepository) Update(pair *model.QAPair) error {
	return r.db.Save(pair).Error
}

// Delete 删除问答对，记录不存在时返回 gorm.ErrRecordNotFound。
func (r *qaRepository) Delete(id uint) error {
	res := r.db.Delete(&model.QAPair{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *qaRepository) FindByID(id uint) (*model.QAPair, error) {
	var pair model.QAPair
	if err := r.db.First(&pair, id).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *qaRepository) FindAll() ([]model.QAPair, error) {
	var pairs []model.QAPair
	err := r.db.Order("id ASC").Find(&pairs).Error
	return pairs, err
}

// MatchQuestion 返回第一个问题中包含给定文本的问答对（不区分大小写）。
func (r *qaRepository) MatchQuestion(question string) (*model.QAPair, error) {
	var pair model.QAPair
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(question))) + "%"
	err := r.db.Where("LOWER(question) LIKE ? ESCAPE '!'", pattern).Order("id ASC").First(&pair).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
