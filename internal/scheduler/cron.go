package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jobmatch/internal/model"
	"jobmatch/internal/service"
	"jobmatch/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config 用于调度配置。
type Config struct {
	Spec      string `yaml:"spec" json:"spec"`
	Timeout   string `yaml:"timeout" json:"timeout"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	Workers   int    `yaml:"workers" json:"workers"`
}

// Store 查找尚未匹配的开放职位。
type Store interface {
	FindOpenJobs(ctx context.Context, opts storage.JobQueryOptions) ([]model.Job, error)
}

// Alerter 对单个职位执行职位提醒。
type Alerter interface {
	RunJobAlerts(ctx context.Context, job model.Job) (service.Outcome, error)
}

// Scheduler 周期性扫描未匹配的职位并发送提醒，同一时间只运行一轮。
type Scheduler struct {
	store     Store
	alerter   Alerter
	spec      string
	timeout   time.Duration
	batchSize int
	workers   int
	running   atomic.Bool
	logger    *zap.Logger
}

// NewScheduler 解析 cron 表达式（支持 "@every 5m" 等描述符）与超时。
func NewScheduler(s Store, a Alerter, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if s == nil || a == nil {
		return nil, errors.New("scheduler missing dependencies")
	}
	spec := cfg.Spec
	if spec == "" {
		spec = "@every 5m"
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	timeout := 2 * time.Minute
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		store:     s,
		alerter:   a,
		spec:      spec,
		timeout:   timeout,
		batchSize: batch,
		workers:   workers,
		logger:    logger,
	}, nil
}

// Start 启动调度循环，直到上下文取消。
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.runOnce(ctx); err != nil {
			s.logger.Warn("sweep finished with errors", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// RunOnce 对外暴露单次扫描接口，返回处理的职位数。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		s.logger.Debug("sweep already running, skipped")
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	jobs, err := s.store.FindOpenJobs(ctx, storage.JobQueryOptions{Unmatched: true, Limit: s.batchSize})
	if err != nil {
		return 0, fmt.Errorf("list unmatched jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	var (
		processed atomic.Int32
		mu        sync.Mutex
		errs      []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, job := range jobs {
		g.Go(func() error {
			out, err := s.alerter.RunJobAlerts(gctx, job)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("job %s: %w", job.ID, err))
				mu.Unlock()
				return nil
			}
			processed.Add(1)
			s.logger.Debug("job swept", zap.String("job_id", job.ID), zap.Int("ranked", out.Ranked))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("sweep finished",
		zap.Int("jobs", len(jobs)),
		zap.Int32("processed", processed.Load()),
		zap.Int("failed", len(errs)),
	)
	return int(processed.Load()), errors.Join(errs...)
}
