package main

import (
	"context"
	"fmt"
	"time"

	"jobmatch/internal/dispatch"
	"jobmatch/internal/events"
	"jobmatch/internal/matching"
	"jobmatch/internal/notifier"
	"jobmatch/internal/profile"
	"jobmatch/internal/scheduler"
	"jobmatch/internal/service"
	"jobmatch/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Scheduler 抽象调度接口，便于替换。
type Scheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}

// appDeps 运行期依赖集合。
type appDeps struct {
	store    *storage.Store
	service  *service.Service
	profiles *profile.Service
	sched    Scheduler
}

// depsBuilder 构造依赖并返回清理函数。
type depsBuilder func(AppConfig) (appDeps, func(), error)

// buildDeps 按配置组装存储、通知与调度：配置了 Redis 时用它去重并发布事件，
// 否则用数据库通知表去重；未配置 SMTP 时邮件只写日志。
func buildDeps(ctx context.Context, cfg AppConfig, log *zap.Logger) (appDeps, func(), error) {
	store, err := storage.Open(cfg.Database)
	if err != nil {
		return appDeps{}, func() {}, fmt.Errorf("init store: %w", err)
	}
	var rdb *redis.Client
	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if err := store.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}

	scorer, err := matching.NewScorer(cfg.Matching, log.Named("matching"))
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}
	policy, err := dispatch.NewPolicy(cfg.Dispatch)
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}

	deps := service.Deps{
		Candidates: store,
		Jobs:       store,
		Messages:   store,
		Ledger:     store,
		Scorer:     scorer,
		Policy:     policy,
		Logger:     log.Named("service"),
	}

	if cfg.Redis.URL != "" {
		var ttl time.Duration
		if cfg.Redis.DedupTTL != "" {
			if ttl, err = time.ParseDuration(cfg.Redis.DedupTTL); err != nil {
				cleanup()
				return appDeps{}, func() {}, fmt.Errorf("redis dedup_ttl: %w", err)
			}
		}
		rdb, err = events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			cleanup()
			return appDeps{}, func() {}, err
		}
		deps.Ledger = notifier.NewRedisLedger(rdb, "", ttl)
		deps.Publisher = events.NewRedisPublisher(rdb, cfg.Redis.Channel)
	}

	if cfg.Email.Enabled() {
		deps.Mailer = notifier.NewMailDispatcher(cfg.Email, notifier.NewSMTPClient(cfg.Email), log.Named("mail"))
	} else {
		log.Info("smtp not configured, job alert emails go to the log")
		deps.Mailer = notifier.NewLogMailer(log.Named("mail"))
	}

	svc, err := service.New(deps)
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}
	sched, err := scheduler.NewScheduler(store, svc, cfg.Scheduler.Config, log.Named("scheduler"))
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}

	return appDeps{
		store:    store,
		service:  svc,
		profiles: profile.NewService(store, cfg.Profile),
		sched:    sched,
	}, cleanup, nil
}

// runOnceManual 构造依赖并执行一次扫描。
func runOnceManual(ctx context.Context, cfg AppConfig, build depsBuilder) (int, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	return deps.sched.RunOnce(ctx)
}
