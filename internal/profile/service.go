package profile

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"jobmatch/internal/matching"
	"jobmatch/internal/model"
)

// ErrInvalid 档案或请求参数不合法。
var ErrInvalid = errors.New("invalid profile")

// Store 定义持久化接口。
type Store interface {
	UpsertCandidate(ctx context.Context, c *model.Candidate) error
	FindCandidateByID(ctx context.Context, id string) (*model.Candidate, error)
	AddExclusion(ctx context.Context, candidateID string, ex model.Exclusion) (*model.Candidate, error)
}

// Config 控制可选的工作类型、工作环境与子类别，为空时不限制。
type Config struct {
	JobTypes         []string `yaml:"job_types" json:"job_types"`
	WorkEnvironments []string `yaml:"work_environments" json:"work_environments"`
	SubCategories    []string `yaml:"sub_categories" json:"sub_categories"`
}

// ExclusionRequest 表示"不感兴趣"请求。
type ExclusionRequest struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
}

// Service 负责校验与写入候选人档案。
type Service struct {
	store    Store
	jobTypes map[string]string
	envs     map[string]string
	subs     map[string]string
}

// NewService 创建档案服务。
func NewService(store Store, cfg Config) *Service {
	return &Service{
		store:    store,
		jobTypes: lookup(cfg.JobTypes),
		envs:     lookup(cfg.WorkEnvironments),
		subs:     lookup(cfg.SubCategories),
	}
}

// Save 校验档案并写入数据库，偏好取值统一为配置中的写法。
func (s *Service) Save(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return model.Candidate{}, fmt.Errorf("%w: id required", ErrInvalid)
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return model.Candidate{}, fmt.Errorf("%w: invalid email: %v", ErrInvalid, err)
		}
	}

	var err error
	if c.PreferredJobTypes, err = canonical(c.PreferredJobTypes, s.jobTypes, "job type"); err != nil {
		return model.Candidate{}, err
	}
	if c.WorkEnvPreferences, err = canonical(c.WorkEnvPreferences, s.envs, "work environment"); err != nil {
		return model.Candidate{}, err
	}
	c.Skills = dedupe(c.Skills)
	c.PreferredLocations = dedupe(c.PreferredLocations)

	if err := s.store.UpsertCandidate(ctx, &c); err != nil {
		return model.Candidate{}, err
	}
	return c, nil
}

// Exclude 为候选人添加不感兴趣的子类别。
func (s *Service) Exclude(ctx context.Context, candidateID string, req ExclusionRequest) (model.Candidate, error) {
	sub := strings.TrimSpace(req.SubCategory)
	if sub == "" {
		return model.Candidate{}, fmt.Errorf("%w: sub_category required", ErrInvalid)
	}
	if len(s.subs) > 0 {
		name, ok := s.subs[strings.ToLower(sub)]
		if !ok {
			return model.Candidate{}, fmt.Errorf("%w: unknown sub_category %s", ErrInvalid, sub)
		}
		sub = name
	}
	c, err := s.store.AddExclusion(ctx, candidateID, model.Exclusion{
		Category:    strings.TrimSpace(req.Category),
		SubCategory: sub,
	})
	if err != nil {
		return model.Candidate{}, err
	}
	return *c, nil
}

// Completeness 返回候选人档案完整度。
func (s *Service) Completeness(ctx context.Context, candidateID string) (matching.Completeness, error) {
	c, err := s.store.FindCandidateByID(ctx, candidateID)
	if err != nil {
		return matching.Completeness{}, err
	}
	return matching.AnalyzeCompleteness(*c), nil
}

func lookup(values []string) map[string]string {
	out := make(map[string]string)
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out[strings.ToLower(trimmed)] = trimmed
		}
	}
	return out
}

func canonical(values []string, allowed map[string]string, kind string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range dedupe(values) {
		if len(allowed) == 0 {
			out = append(out, v)
			continue
		}
		name, ok := allowed[strings.ToLower(v)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown %s %s", ErrInvalid, kind, v)
		}
		out = append(out, name)
	}
	return out, nil
}

// dedupe 去掉空白项与大小写重复项，保留顺序。
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		key := strings.ToLower(trimmed)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
