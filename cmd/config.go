package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"jobmatch/internal/api"
	"jobmatch/internal/dispatch"
	"jobmatch/internal/events"
	"jobmatch/internal/logger"
	"jobmatch/internal/matching"
	"jobmatch/internal/notifier"
	"jobmatch/internal/profile"
	"jobmatch/internal/scheduler"
	"jobmatch/internal/storage"

	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server    api.Config           `yaml:"server"`
	Database  storage.Config       `yaml:"database"`
	Redis     events.Config        `yaml:"redis"`
	Email     notifier.EmailConfig `yaml:"email"`
	Matching  matching.Config      `yaml:"matching"`
	Dispatch  dispatch.Config      `yaml:"dispatch"`
	Scheduler SchedulerConfig      `yaml:"scheduler"`
	Profile   profile.Config       `yaml:"profile"`
	Log       logger.Config        `yaml:"log"`
}

// SchedulerConfig 在扫描配置之外增加开关。
type SchedulerConfig struct {
	Enabled          *bool `yaml:"enabled"`
	scheduler.Config `yaml:",inline"`
}

// On 默认开启。
func (c SchedulerConfig) On() bool {
	return c.Enabled == nil || *c.Enabled
}

// loadConfig 按 --config、CONFIG_FILE、config.yaml 的顺序查找配置文件；
// 使用默认路径且文件不存在时返回默认配置。
func loadConfig(path string) (AppConfig, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// validate 在启动前校验权重、通知策略与时间配置。
func (c AppConfig) validate() error {
	if _, err := matching.NewScorer(c.Matching, nil); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if _, err := dispatch.NewPolicy(c.Dispatch); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "", "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database: postgres requires dsn")
		}
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}
	if c.Redis.DedupTTL != "" {
		if _, err := time.ParseDuration(c.Redis.DedupTTL); err != nil {
			return fmt.Errorf("redis: dedup_ttl: %w", err)
		}
	}
	if c.Scheduler.Timeout != "" {
		if _, err := time.ParseDuration(c.Scheduler.Timeout); err != nil {
			return fmt.Errorf("scheduler: timeout: %w", err)
		}
	}
	return nil
}
