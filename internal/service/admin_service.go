// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"time"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/pkg/log"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// StatsResponse 汇总了各类别的累计消息数和指定日期的消息数。
type StatsResponse struct {
	Day              string           `json:"day"`
	TotalByCat       map[string]int64 `json:"totalByCategory"`
	Total            int64            `json:"total"`
	DailyByCat       map[string]int64 `json:"dailyByCategory"`
	DailyTotal       int64            `json:"dailyTotal"`
	DailyUnavailable bool             `json:"dailyUnavailable,omitempty"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	ListChatRecords(filter repository.ChatRecordFilter) ([]model.ChatRecord, error)
	Stats(ctx context.Context, day time.Time) (*StatsResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo   repository.UserRepository
	recordRepo repository.ChatRecordRepository
	statsRepo  repository.StatsRepository
}

// NewAdminService 创建一个新的 AdminService 实例。statsRepo 可以为 nil。
func NewAdminService(userRepo repository.UserRepository, recordRepo repository.ChatRecordRepository, statsRepo repository.StatsRepository) AdminService {
	return &adminService{
		userRepo:   userRepo,
		recordRepo: recordRepo,
		statsRepo:  statsRepo,
	}
}

// ListUsers 以分页的形式返回用户列表，page 从 1 开始。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	offset := (page - 1) * size
	users, total, err := s.userRepo.FindWithPagination(offset, size)
	if err != nil {
		return nil, err
	}

	userResponses := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		userResponses = append(userResponses, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}

	totalPages := int(total) / size
	if int(total)%size != 0 {
		totalPages++
	}
	return &UserListResponse{
		Content:       userResponses,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}

// ListChatRecords 按过滤条件查询所有用户的聊天记录。
func (s *adminService) ListChatRecords(filter repository.ChatRecordFilter) ([]model.ChatRecord, error) {
	filter.Limit = normalizeLimit(filter.Limit)
	records, err := s.recordRepo.Find(filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.ChatRecord{}
	}
	return records, nil
}

// Stats 合并数据库中的累计类别统计与 Redis 中的当日统计。
// Redis 不可用时只返回累计部分。
func (s *adminService) Stats(ctx context.Context, day time.Time) (*StatsResponse, error) {
	counts, err := s.recordRepo.CountByCategory()
	if err != nil {
		return nil, err
	}

	resp := &StatsResponse{
		Day:        day.Format("2006-01-02"),
		TotalByCat: zeroCounts(),
		DailyByCat: zeroCounts(),
	}
	for _, c := range counts {
		resp.TotalByCat[c.Category] += c.Count
		resp.Total += c.Count
	}

	if s.statsRepo == nil {
		resp.DailyUnavailable = true
		return resp, nil
	}
	daily, err := s.statsRepo.GetCategoryCounts(ctx, day)
	if err != nil {
		log.Warnf("[AdminService] 读取当日类别统计失败: %v", err)
		resp.DailyUnavailable = true
		return resp, nil
	}
	for cat, n := range daily {
		resp.DailyByCat[cat] += n
		resp.DailyTotal += n
	}
	return resp, nil
}

func zeroCounts() map[string]int64 {
	m := make(map[string]int64, len(classifier.Categories()))
	for _, c := range classifier.Categories() {
		m[string(c)] = 0
	}
	return m
}
