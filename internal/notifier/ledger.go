package notifier

import (
	"context"
	"fmt"
	"time"

	"jobmatch/internal/model"

	"github.com/redis/go-redis/v9"
)

// Ledger 记录已发送的通知，MarkNotified 首次记录时返回 true；
// 发送失败时调用 Forget 撤销记录，下一轮可以重试。
type Ledger interface {
	MarkNotified(ctx context.Context, jobID, candidateID string, channel model.Channel) (bool, error)
	Forget(ctx context.Context, jobID, candidateID string, channel model.Channel) error
}

// RedisLedger 用 SETNX 记录通知，键在 ttl 后过期。
type RedisLedger struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLedger ttl 为 0 时默认保留 90 天。
func NewRedisLedger(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = "jobmatch:notified"
	}
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &RedisLedger{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *RedisLedger) MarkNotified(ctx context.Context, jobID, candidateID string, channel model.Channel) (bool, error) {
	key := l.key(jobID, candidateID, channel)
	ok, err := l.rdb.SetNX(ctx, key, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisLedger) Forget(ctx context.Context, jobID, candidateID string, channel model.Channel) error {
	key := l.key(jobID, candidateID, channel)
	if err := l.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (l *RedisLedger) key(jobID, candidateID string, channel model.Channel) string {
	return fmt.Sprintf("%s:%s:%s:%s", l.prefix, jobID, channel, candidateID)
}
