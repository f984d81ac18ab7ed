package matching

import (
	"fmt"
	"math"
)

// Direction 选择打分方向，决定权重表与参与的字段。
type Direction int

const (
	// JobToCandidates 新职位发布时为候选人排序。
	JobToCandidates Direction = iota
	// CandidateToJobs 为单个候选人推荐职位。
	CandidateToJobs
)

func (d Direction) String() string {
	switch d {
	case JobToCandidates:
		return "job_to_candidates"
	case CandidateToJobs:
		return "candidate_to_jobs"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Weights 各字段权重，单位为百分比，合计必须为 100。
type Weights struct {
	Skills     float64 `yaml:"skills" json:"skills"`
	Title      float64 `yaml:"title" json:"title"`
	Location   float64 `yaml:"location" json:"location"`
	WorkType   float64 `yaml:"work_type" json:"work_type"`
	WorkEnv    float64 `yaml:"work_env" json:"work_env"`
	Category   float64 `yaml:"category" json:"category"`
	Experience float64 `yaml:"experience" json:"experience"`
	Salary     float64 `yaml:"salary" json:"salary"`
}

// DefaultJobWeights 职位找候选人方向的默认权重。
func DefaultJobWeights() Weights {
	return Weights{Skills: 40, Title: 25, Location: 20, WorkType: 10, WorkEnv: 5}
}

// DefaultCandidateWeights 候选人找职位方向的默认权重。
func DefaultCandidateWeights() Weights {
	return Weights{
		Skills:     35,
		Title:      20,
		Category:   15,
		WorkType:   10,
		WorkEnv:    8,
		Location:   5,
		Experience: 4,
		Salary:     3,
	}
}

func (w Weights) Sum() float64 {
	return w.Skills + w.Title + w.Location + w.WorkType + w.WorkEnv + w.Category + w.Experience + w.Salary
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

// Validate 在加载配置时调用一次：权重非负、合计为 100，
// 且职位找候选人方向不能给该方向不计算的字段分配权重。
func (w Weights) Validate(d Direction) error {
	values := []struct {
		name string
		v    float64
	}{
		{"skills", w.Skills},
		{"title", w.Title},
		{"location", w.Location},
		{"work_type", w.WorkType},
		{"work_env", w.WorkEnv},
		{"category", w.Category},
		{"experience", w.Experience},
		{"salary", w.Salary},
	}
	for _, f := range values {
		if f.v < 0 {
			return fmt.Errorf("%s weight %s is negative: %v", d, f.name, f.v)
		}
	}
	if d == JobToCandidates && (w.Category != 0 || w.Experience != 0 || w.Salary != 0) {
		return fmt.Errorf("%s weights: category, experience and salary are not scored in this direction", d)
	}
	if sum := w.Sum(); math.Abs(sum-100) > 1e-6 {
		return fmt.Errorf("%s weights must sum to 100, got %v", d, sum)
	}
	return nil
}

// Bonuses 候选人找职位方向的固定加分。
type Bonuses struct {
	Premium           float64 `yaml:"premium" json:"premium"`
	ImmediateStart    float64 `yaml:"immediate_start" json:"immediate_start"`
	PostedWithinWeek  float64 `yaml:"posted_within_week" json:"posted_within_week"`
	PostedWithinMonth float64 `yaml:"posted_within_month" json:"posted_within_month"`
}

func DefaultBonuses() Bonuses {
	return Bonuses{Premium: 3, ImmediateStart: 2, PostedWithinWeek: 2, PostedWithinMonth: 1}
}

// apply 计算加权和，各字段分数均已在 [0,100]。
func (w Weights) apply(f FieldScores) float64 {
	return (w.Skills*f.Skills +
		w.Title*f.TitleQuality +
		w.Location*f.Location +
		w.WorkType*f.WorkType +
		w.WorkEnv*f.WorkEnv +
		w.Category*f.Category +
		w.Experience*f.Experience +
		w.Salary*f.Salary) / 100
}
