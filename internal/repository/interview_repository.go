package repository

import (
	"interviewiq-go/internal/model"

	"gorm.io/gorm"
)

// InterviewRepository 定义了面试日程的持久化操作，所有查询都限定在所属用户内。
type InterviewRepository interface {
	Create(interview *model.Interview) error
	Update(interview *model.Interview) error
	Delete(userID, id uint) error
	FindByID(userID, id uint) (*model.Interview, error)
	FindByUser(userID uint) ([]model.Interview, error)
}

type interviewRepository struct {
	db *gorm.DB
}

// NewInterviewRepository 创建一个新的 InterviewRepository 实例。
func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) Create(interview *model.Interview) error {
	return r.db.Create(interview).Error
}

func (r *interviewRepository) Update(interview *model.Interview) error {
	return r.db.Save(interview).Error
}

// Delete 删除属于该用户的面试，不存在或属于其他用户时返回 gorm.ErrRecordNotFound。
func (r *interviewRepository) Delete(userID, id uint) error {
	res := r.db.Where("user_id = ?", userID).Delete(&model.Interview{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *interviewRepository) FindByID(userID, id uint) (*model.Interview, error) {
	var interview model.Interview
	if err := r.db.Where("user_id = ?", userID).First(&interview, id).Error; err != nil {
		return nil, err
	}
	return &interview, nil
}

// FindByUser 按面试时间升序返回用户的全部面试。
func (r *interviewRepository) FindByUser(userID uint) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&interviews).Error
	return interviews, err
}
