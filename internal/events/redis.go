package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeJobMatched 职位完成匹配与通知后发布。
const TypeJobMatched = "JOB_MATCHED"

// Config Redis 配置，URL 为空时不启用。
type Config struct {
	URL      string `yaml:"url" json:"url"`
	Channel  string `yaml:"channel" json:"channel"`
	DedupTTL string `yaml:"dedup_ttl" json:"dedup_ttl"`
}

// Event 发布到 Redis 的匹配事件。
type Event struct {
	Type       string    `json:"type"`
	JobID      string    `json:"jobId"`
	Ranked     int       `json:"ranked"`
	Emailed    int       `json:"emailed"`
	Messaged   int       `json:"messaged"`
	TopScore   float64   `json:"topScore"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewRedisClient 创建并验证 Redis 连接。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisPublisher 通过 Redis pub/sub 推送事件。
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "jobmatch:events"
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
