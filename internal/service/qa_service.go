package service

import (
	"errors"
	"strings"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"

	"gorm.io/gorm"
)

// UnknownAnswer 是问答库中找不到匹配问题时的回复。
const UnknownAnswer = "Sorry, I don't know the answer yet."

// QAAnswer 是问答查询的返回体。
type QAAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Found    bool   `json:"found"`
}

// QAService 定义了问答库的查询与维护操作。
type QAService interface {
	Ask(question string) (*QAAnswer, error)
	Create(question, answer string, creator *model.User) (*model.QAPair, error)
	Update(id uint, question, answer string) (*model.QAPair, error)
	Delete(id uint) error
	List() ([]model.QAPair, error)
}

type qaService struct {
	repo repository.QARepository
}

// NewQAService 创建一个新的 QAService 实例。
func NewQAService(repo repository.QARepository) QAService {
	return &qaService{repo: repo}
}

// Ask 在问答库中查找与问题匹配的答案。
func (s *qaService) Ask(question string) (*QAAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	pair, err := s.repo.MatchQuestion(question)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &QAAnswer{Question: question, Answer: UnknownAnswer}, nil
	}
	if err != nil {
		return nil, err
	}
	return &QAAnswer{Question: pair.Question, Answer: pair.Answer, Found: true}, nil
}

// Create 新增一条问答。
func (s *qaService) Create(question, answer string, creator *model.User) (*model.QAPair, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	pair := &model.QAPair{Question: question, Answer: answer}
	if creator != nil {
		pair.CreatedBy = creator.ID
	}
	if err := s.repo.Create(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Update 修改问答内容，空字段保持原值。
func (s *qaService) Update(id uint, question, answer string) (*model.QAPair, error) {
	pair, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQANotFound
		}
		return nil, err
	}
	if q := strings.TrimSpace(question); q != "" {
		pair.Question = q
	}
	if answer != "" {
		pair.Answer = answer
	}
	if err := s.repo.Update(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Delete 删除一条问答。
func (s *qaService) Delete(id uint) error {
	err := s.repo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrQANotFound
	}
	return err
}

// List 返回全部问答。
func (s *qaService) List() ([]model.QAPair, error) {
	pairs, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = []model.QAPair{}
	}
	return pairs, nil
}
