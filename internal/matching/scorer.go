package matching

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"jobmatch/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config 打分配置，零值字段使用默认值；MinRecommendationScore 为空时取 10，显式的 0 表示不设下限。
type Config struct {
	JobWeights             Weights  `yaml:"job_weights" json:"job_weights"`
	CandidateWeights       Weights  `yaml:"candidate_weights" json:"candidate_weights"`
	Bonuses                Bonuses  `yaml:"bonuses" json:"bonuses"`
	SalaryThreshold        float64  `yaml:"salary_threshold" json:"salary_threshold"`
	MinRecommendationScore *float64 `yaml:"min_recommendation_score" json:"min_recommendation_score"`
	RecommendationLimit    int      `yaml:"recommendation_limit" json:"recommendation_limit"`
	ParallelThreshold      int      `yaml:"parallel_threshold" json:"parallel_threshold"`
	Workers                int      `yaml:"workers" json:"workers"`
}

// FieldScores 各字段得分，均在 [0,100]；Bonus 为加分总和。
type FieldScores struct {
	Skills       float64 `json:"skills"`
	TitleQuality float64 `json:"title_quality"`
	Location     float64 `json:"location"`
	WorkType     float64 `json:"work_type"`
	WorkEnv      float64 `json:"work_env"`
	Category     float64 `json:"category,omitempty"`
	Experience   float64 `json:"experience,omitempty"`
	Salary       float64 `json:"salary,omitempty"`
	Bonus        float64 `json:"bonus,omitempty"`
}

// MatchResult 一次候选人与职位的打分结果，每轮新建，不做修改。
type MatchResult struct {
	CandidateID string      `json:"candidate_id"`
	JobID       string      `json:"job_id"`
	Score       float64     `json:"score"`
	Fields      FieldScores `json:"fields"`
	Reasons     []string    `json:"reasons"`
}

// Recommendation 推荐给候选人的职位。
type Recommendation struct {
	Job model.Job `json:"job"`
	MatchResult
}

// Recommendations 推荐结果；LowConfidence 表示没有职位超过最低分，返回的是兜底列表。
type Recommendations struct {
	Items         []Recommendation `json:"items"`
	LowConfidence bool             `json:"low_confidence"`
	Considered    int              `json:"considered"`
}

// Scorer 组合各字段匹配器，按方向选择权重表。
// 只读取传入的数据，可以并发使用。
type Scorer struct {
	jobWeights       Weights
	candidateWeights Weights
	bonuses          Bonuses
	salaryThreshold  float64
	minRecommend     float64
	recommendLimit   int
	parallelFrom     int
	workers          int
	logger           *zap.Logger
	now              func() time.Time
}

// NewScorer 填充默认值并校验权重表。
func NewScorer(cfg Config, logger *zap.Logger) (*Scorer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobWeights.isZero() {
		cfg.JobWeights = DefaultJobWeights()
	}
	if cfg.CandidateWeights.isZero() {
		cfg.CandidateWeights = DefaultCandidateWeights()
	}
	if cfg.Bonuses == (Bonuses{}) {
		cfg.Bonuses = DefaultBonuses()
	}
	if err := cfg.JobWeights.Validate(JobToCandidates); err != nil {
		return nil, fmt.Errorf("validate weights: %w", err)
	}
	if err := cfg.CandidateWeights.Validate(CandidateToJobs); err != nil {
		return nil, fmt.Errorf("validate weights: %w", err)
	}
	if cfg.SalaryThreshold <= 0 {
		cfg.SalaryThreshold = 50000
	}
	minRecommend := 10.0
	if cfg.MinRecommendationScore != nil {
		minRecommend = *cfg.MinRecommendationScore
	}
	if minRecommend < 0 || minRecommend > 100 {
		return nil, fmt.Errorf("min_recommendation_score %v must be within [0,100]", minRecommend)
	}
	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = 8
	}
	if cfg.ParallelThreshold <= 0 {
		cfg.ParallelThreshold = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return &Scorer{
		jobWeights:       cfg.JobWeights,
		candidateWeights: cfg.CandidateWeights,
		bonuses:          cfg.Bonuses,
		salaryThreshold:  cfg.SalaryThreshold,
		minRecommend:     minRecommend,
		recommendLimit:   cfg.RecommendationLimit,
		parallelFrom:     cfg.ParallelThreshold,
		workers:          cfg.Workers,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// Score 对单个候选人与职位打分。
func (s *Scorer) Score(d Direction, c model.Candidate, j model.Job) MatchResult {
	if d == CandidateToJobs {
		return s.scoreForCandidate(c, j)
	}
	return s.scoreForJob(c, j)
}

// RankCandidates 为新职位排序候选人：跳过无技能或对该子类别不感兴趣的候选人，
// 返回全部结果，按分数降序稳定排序，同分保持输入顺序。
func (s *Scorer) RankCandidates(job model.Job, pool []model.Candidate) []MatchResult {
	eligible := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if !hasAny(c.Skills) || IsExcluded(c, job) {
			continue
		}
		eligible = append(eligible, c)
	}

	results := s.scoreAll(len(eligible), func(i int) MatchResult {
		return s.scoreForJob(eligible[i], job)
	})
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	s.logger.Debug("ranked candidates",
		zap.String("job_id", job.ID),
		zap.Int("pool", len(pool)),
		zap.Int("ranked", len(results)),
	)
	return results
}

// RecommendJobs 为候选人推荐职位：保留分数高于阈值的前 N 个；
// 若没有职位超过阈值，则退回未过滤的前 N 个并标记 LowConfidence。
func (s *Scorer) RecommendJobs(candidate model.Candidate, jobs []model.Job) Recommendations {
	eligible := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if IsExcluded(candidate, j) {
			continue
		}
		eligible = append(eligible, j)
	}

	results := s.scoreAll(len(eligible), func(i int) MatchResult {
		return s.scoreForCandidate(candidate, eligible[i])
	})
	recs := make([]Recommendation, len(results))
	for i := range results {
		recs[i] = Recommendation{Job: eligible[i], MatchResult: results[i]}
	}
	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].Score > recs[b].Score
	})

	out := Recommendations{Items: []Recommendation{}, Considered: len(recs)}
	for _, r := range recs {
		if r.Score > s.minRecommend {
			out.Items = append(out.Items, r)
		}
	}
	if len(out.Items) == 0 && len(recs) > 0 {
		out.Items = recs
		out.LowConfidence = true
	}
	if len(out.Items) > s.recommendLimit {
		out.Items = out.Items[:s.recommendLimit]
	}
	return out
}

// IsExcluded 候选人标记了对该职位子类别不感兴趣。
func IsExcluded(c model.Candidate, j model.Job) bool {
	sub := Normalize(j.SubCategory)
	if sub == "" {
		return false
	}
	for _, ex := range c.NotInterested {
		if Normalize(ex.SubCategory) != sub {
			continue
		}
		if ex.Category == "" || Normalize(ex.Category) == Normalize(j.Category) {
			return true
		}
	}
	return false
}

func (s *Scorer) scoreForJob(c model.Candidate, j model.Job) MatchResult {
	skills := MatchSkills(c.Skills, j.Skills)
	title := MatchTitle(c.DreamJobTitle, j.Title)
	loc := MatchLocation(c.ResidentCountry, j.Location, c.PreferredLocations)
	workType := MatchPreference(c.PreferredJobTypes, j.WorkType)
	workEnv := MatchPreference(c.WorkEnvPreferences, j.WorkspaceOption)

	fields := FieldScores{
		Skills:       skills.Score,
		TitleQuality: title.Score,
		Location:     loc.Score,
		WorkType:     workType.Score,
		WorkEnv:      workEnv.Score,
	}

	return MatchResult{
		CandidateID: c.ID,
		JobID:       j.ID,
		Score:       math.Round(clamp(s.jobWeights.apply(fields))),
		Fields:      fields,
		Reasons:     baseReasons(skills, title, loc, workType, workEnv, j),
	}
}

func (s *Scorer) scoreForCandidate(c model.Candidate, j model.Job) MatchResult {
	skills := MatchSkillsWeighted(c.Skills, unionSkills(j.Skills, j.Keywords))
	title := MatchTitle(c.DreamJobTitle, j.Title)
	loc := MatchLocation(c.ResidentCountry, j.Location, c.PreferredLocations)
	workType := MatchPreference(c.PreferredJobTypes, j.WorkType)
	workEnv := MatchPreference(c.WorkEnvPreferences, j.WorkspaceOption)
	category, categoryReason := categoryRelevance(c, j)
	experience := experienceAlignment(c, j)

	salary := 0.0
	if avg := j.AverageSalary(); avg > 0 && avg >= s.salaryThreshold {
		salary = 100
	}

	fields := FieldScores{
		Skills:       skills.Score,
		TitleQuality: title.Score,
		Location:     loc.Score,
		WorkType:     workType.Score,
		WorkEnv:      workEnv.Score,
		Category:     category,
		Experience:   experience,
		Salary:       salary,
	}

	reasons := baseReasons(skills, title, loc, workType, workEnv, j)
	if categoryReason != "" {
		reasons = append(reasons, categoryReason)
	}
	if experience >= 60 {
		reasons = append(reasons, "Experience level fits the role")
	}
	if salary > 0 {
		reasons = append(reasons, fmt.Sprintf("Competitive salary: %.0f %s", j.AverageSalary(), j.Currency))
	}

	bonus, bonusReasons := s.bonus(j)
	fields.Bonus = bonus
	reasons = append(reasons, bonusReasons...)

	total := clamp(s.candidateWeights.apply(fields) + bonus)
	return MatchResult{
		CandidateID: c.ID,
		JobID:       j.ID,
		Score:       math.Round(total*10) / 10,
		Fields:      fields,
		Reasons:     reasons,
	}
}

func (s *Scorer) bonus(j model.Job) (float64, []string) {
	var total float64
	var reasons []string
	if j.IsPremium {
		total += s.bonuses.Premium
		reasons = append(reasons, "Premium listing")
	}
	if j.HasImmediateStart {
		total += s.bonuses.ImmediateStart
		reasons = append(reasons, "Immediate start")
	}
	if !j.PostedAt.IsZero() {
		age := s.now().Sub(j.PostedAt)
		switch {
		case age <= 7*24*time.Hour:
			total += s.bonuses.PostedWithinWeek
			reasons = append(reasons, "Posted this week")
		case age <= 30*24*time.Hour:
			total += s.bonuses.PostedWithinMonth
			reasons = append(reasons, "Posted this month")
		}
	}
	return total, reasons
}

func baseReasons(skills SkillsMatch, title TitleMatch, loc LocationMatch, workType, workEnv PreferenceMatch, j model.Job) []string {
	reasons := []string{}
	if len(skills.Matched) > 0 {
		reasons = append(reasons, fmt.Sprintf("Skills match: %d/%d (%s)", len(skills.Matched), skills.Total, strings.Join(skills.Matched, ", ")))
	}
	if title.Score > 0 {
		reasons = append(reasons, "Job title: "+title.MatchType)
	}
	if loc.Score > 0 {
		reasons = append(reasons, "Location: "+loc.MatchType)
	}
	if workType.Score > 0 {
		reasons = append(reasons, "Work type: "+j.WorkType)
	}
	if workEnv.Score > 0 {
		reasons = append(reasons, "Work environment: "+j.WorkspaceOption)
	}
	return reasons
}

// scoreAll 逐项打分；数量达到阈值时用 errgroup 分块并发，结果按下标写回，顺序不变。
func (s *Scorer) scoreAll(n int, score func(int) MatchResult) []MatchResult {
	results := make([]MatchResult, n)
	if n < s.parallelFrom || s.workers <= 1 {
		for i := range results {
			results[i] = score(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	chunk := (n + s.workers - 1) / s.workers
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				results[i] = score(i)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func hasAny(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
