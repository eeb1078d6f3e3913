package service

import (
	"errors"
	"strings"
	"time"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"

	"gorm.io/gorm"
)

// InterviewInput 是创建或修改面试时的字段集合，nil 表示该字段未提供。
type InterviewInput struct {
	Title       *string
	Description *string
	Date        *time.Time
	Duration    *int
	Type        *string
}

// InterviewService 管理用户自己的面试日程，其他用户的记录一律视为不存在。
type InterviewService interface {
	Create(userID uint, in InterviewInput) (*model.Interview, error)
	List(userID uint) ([]model.Interview, error)
	Get(userID, id uint) (*model.Interview, error)
	Update(userID, id uint, in InterviewInput) (*model.Interview, error)
	Delete(userID, id uint) error
}

type interviewService struct {
	repo repository.InterviewRepository
}

// NewInterviewService 创建一个新的 InterviewService 实例。
func NewInterviewService(repo repository.InterviewRepository) InterviewService {
	return &interviewService{repo: repo}
}

// Create 新建一场面试，标题和时间必填。
func (s *interviewService) Create(userID uint, in InterviewInput) (*model.Interview, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Date == nil || in.Date.IsZero() {
		return nil, ErrInvalidInterview
	}
	interview := &model.Interview{UserID: userID}
	in.apply(interview)
	if err := s.repo.Create(interview); err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *interviewService) List(userID uint) ([]model.Interview, error) {
	interviews, err := s.repo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	if interviews == nil {
		interviews = []model.Interview{}
	}
	return interviews, nil
}

func (s *interviewService) Get(userID, id uint) (*model.Interview, error) {
	interview, err := s.repo.FindByID(userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInterviewNotFound
	}
	return interview, err
}

// Update 只修改提供了的字段，标题不能被清空。
func (s *interviewService) Update(userID, id uint, in InterviewInput) (*model.Interview, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ErrInvalidInterview
	}
	if in.Date != nil && in.Date.IsZero() {
		return nil, ErrInvalidInterview
	}
	interview, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(interview)
	if err := s.repo.Update(interview); err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *interviewService) Delete(userID, id uint) error {
	err := s.repo.Delete(userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInterviewNotFound
	}
	return err
}

func (in InterviewInput) apply(interview *model.Interview) {
	if in.Title != nil {
		interview.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		interview.Description = *in.Description
	}
	if in.Date != nil {
		interview.Date = *in.Date
	}
	if in.Duration != nil {
		interview.Duration = *in.Duration
	}
	if in.Type != nil {
		interview.Type = *in.Type
	}
}
