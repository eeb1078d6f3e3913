package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	statsTTL    = 90 * 24 * time.Hour
	attemptsTTL = 24 * time.Hour
)

// StatsRepository 维护按天统计的类别计数以及消息处理的重试次数。
type StatsRepository interface {
	IncrCategory(ctx context.Context, day time.Time, category string) error
	GetCategoryCounts(ctx context.Context, day time.Time) (map[string]int64, error)
	IncrAttempts(ctx context.Context, key string) (int64, error)
	ResetAttempts(ctx context.Context, key string) error
}

type redisStatsRepository struct {
	redisClient *redis.Client
}

// NewStatsRepository 创建一个新的 StatsRepository 实例。
func NewStatsRepository(redisClient *redis.Client) StatsRepository {
	return &redisStatsRepository{redisClient: redisClient}
}

// DailyStatsKey 返回某天类别计数所在的 hash key。
func DailyStatsKey(day time.Time) string {
	return "stats:categories:" + day.Format("2006-01-02")
}

func attemptsKey(key string) string {
	return "kafka:attempts:" + key
}

func (r *redisStatsRepository) IncrCategory(ctx context.Context, day time.Time, category string) error {
	key := DailyStatsKey(day)
	pipe := r.redisClient.TxPipeline()
	pipe.HIncrBy(ctx, key, category, 1)
	pipe.Expire(ctx, key, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment category counter: %w", err)
	}
	return nil
}

func (r *redisStatsRepository) GetCategoryCounts(ctx context.Context, day time.Time) (map[string]int64, error) {
	raw, err := r.redisClient.HGetAll(ctx, DailyStatsKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get category counters: %w", err)
	}
	counts := make(map[string]int64, len(raw))
	for category, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[category] = n
	}
	return counts, nil
}

// IncrAttempts 递增失败次数并返回当前值，计数 24 小时后过期。
func (r *redisStatsRepository) IncrAttempts(ctx context.Context, key string) (int64, error) {
	k := attemptsKey(key)
	attempts, err := r.redisClient.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	_ = r.redisClient.Expire(ctx, k, attemptsTTL).Err()
	return attempts, nil
}

func (r *redisStatsRepository) ResetAttempts(ctx context.Context, key string) error {
	return r.redisClient.Del(ctx, attemptsKey(key)).Err()
}
