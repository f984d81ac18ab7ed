package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobmatch/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound 记录不存在。
var ErrNotFound = errors.New("record not found")

// Config 数据库配置，driver 支持 sqlite（默认）与 postgres。
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Store 封装数据库访问：候选人、职位、系统消息与通知记录。
type Store struct {
	db *gorm.DB
}

// JobQueryOptions 职位查询条件。
type JobQueryOptions struct {
	Limit       int
	Offset      int
	Status      model.JobStatus
	Category    string
	SubCategory string
	Unmatched   bool
}

// UpsertResult 批量写入结果。
type UpsertResult struct {
	Created int
	NewJobs []model.Job
}

// NewStore 打开 SQLite 数据库并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	return Open(Config{Driver: "sqlite", Path: dbPath})
}

// Open 按配置选择驱动。
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "jobmatch.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(path)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	if err := db.AutoMigrate(&model.Candidate{}, &model.Job{}, &model.SystemMessage{}, &model.Notification{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateJob 新增职位，缺省字段补齐 ID、状态与发布时间。
func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobStatusOpen
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// UpsertJobs 批量写入职位，已有主键则更新，返回新增数量与新增记录。
func (s *Store) UpsertJobs(ctx context.Context, jobs []model.Job) (UpsertResult, error) {
	res := UpsertResult{}
	if len(jobs) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(jobs))
	for i := range jobs {
		if jobs[i].Status == "" {
			jobs[i].Status = model.JobStatusOpen
		}
		ids = append(ids, jobs[i].ID)
	}

	var existing []string
	if err := s.db.WithContext(ctx).Model(&model.Job{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return res, fmt.Errorf("query existing ids: %w", err)
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}
	for i, id := range ids {
		if _, ok := existingSet[id]; !ok {
			res.Created++
			res.NewJobs = append(res.NewJobs, jobs[i])
			existingSet[id] = struct{}{}
		}
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&jobs)
	if tx.Error != nil {
		return res, fmt.Errorf("upsert jobs: %w", tx.Error)
	}
	return res, nil
}

// FindJobByID 根据 ID 获取职位。
func (s *Store) FindJobByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// FindOpenJobs 返回开放中的职位，按发布时间倒序。
func (s *Store) FindOpenJobs(ctx context.Context, opts JobQueryOptions) ([]model.Job, error) {
	opts.Status = model.JobStatusOpen
	return s.ListJobs(ctx, opts)
}

// ListJobs 按条件分页返回职位。
func (s *Store) ListJobs(ctx context.Context, opts JobQueryOptions) ([]model.Job, error) {
	var jobs []model.Job
	query := applyJobFilters(s.db.WithContext(ctx).Model(&model.Job{}), opts).Order("posted_at DESC").Order("id ASC")
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// CountJobs 返回满足过滤条件的职位数量。
func (s *Store) CountJobs(ctx context.Context, opts JobQueryOptions) (int64, error) {
	var total int64
	if err := applyJobFilters(s.db.WithContext(ctx).Model(&model.Job{}), opts).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}

// PromoteJob 将职位标记为推广（premium）并返回最新记录。
func (s *Store) PromoteJob(ctx context.Context, id string) (*model.Job, error) {
	tx := s.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id).Update("is_premium", true)
	if tx.Error != nil {
		return nil, fmt.Errorf("promote job: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindJobByID(ctx, id)
}

// MarkJobMatched 记录职位完成匹配通知的时间。
func (s *Store) MarkJobMatched(ctx context.Context, id string, at time.Time) error {
	tx := s.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id).Update("matched_at", at)
	if tx.Error != nil {
		return fmt.Errorf("mark job matched: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyJobFilters(db *gorm.DB, opts JobQueryOptions) *gorm.DB {
	if opts.Status != "" {
		db = db.Where("status = ?", opts.Status)
	}
	if opts.Category != "" {
		db = db.Where("LOWER(category) = ?", strings.ToLower(opts.Category))
	}
	if opts.SubCategory != "" {
		db = db.Where("LOWER(sub_category) = ?", strings.ToLower(opts.SubCategory))
	}
	if opts.Unmatched {
		db = db.Where("matched_at IS NULL")
	}
	return db
}
