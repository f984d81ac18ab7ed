package dispatch

import (
	"fmt"

	"jobmatch/internal/matching"
)

// Config 通知阈值与上限。
type Config struct {
	EmailMinScore        float64  `yaml:"email_min_score" json:"email_min_score"`
	EmailMaxRecipients   int      `yaml:"email_max_recipients" json:"email_max_recipients"`
	MessageMinScore      *float64 `yaml:"message_min_score" json:"message_min_score"`
	MessageMaxRecipients int      `yaml:"message_max_recipients" json:"message_max_recipients"`

	// Dedup 为 true 时跳过已就同一职位通知过的候选人。
	Dedup *bool `yaml:"dedup" json:"dedup"`
}

// Policy 把已排序的候选人拆分成邮件批次与站内消息批次。
type Policy struct {
	emailMin   float64
	emailMax   int
	messageMin float64
	messageMax int
	dedup      bool
}

// Plan 两个批次相互独立，可以重叠。
type Plan struct {
	Email    []matching.MatchResult `json:"email"`
	Messages []matching.MatchResult `json:"messages"`
}

// NewPolicy 填充默认值（邮件不设分数下限、上限 1000；消息 40 分以上、上限 15）并校验。
// MessageMinScore 为空时取默认值，显式的 0 表示不设下限。
func NewPolicy(cfg Config) (*Policy, error) {
	if cfg.EmailMaxRecipients == 0 {
		cfg.EmailMaxRecipients = 1000
	}
	messageMin := 40.0
	if cfg.MessageMinScore != nil {
		messageMin = *cfg.MessageMinScore
	}
	if cfg.MessageMaxRecipients == 0 {
		cfg.MessageMaxRecipients = 15
	}
	if cfg.EmailMaxRecipients < 0 || cfg.MessageMaxRecipients < 0 {
		return nil, fmt.Errorf("dispatch caps must not be negative")
	}
	if cfg.EmailMinScore < 0 || cfg.EmailMinScore > 100 || messageMin < 0 || messageMin > 100 {
		return nil, fmt.Errorf("dispatch thresholds must be within [0,100]")
	}
	if messageMin < cfg.EmailMinScore {
		return nil, fmt.Errorf("message_min_score %v must not be below email_min_score %v", messageMin, cfg.EmailMinScore)
	}
	dedup := true
	if cfg.Dedup != nil {
		dedup = *cfg.Dedup
	}
	return &Policy{
		emailMin:   cfg.EmailMinScore,
		emailMax:   cfg.EmailMaxRecipients,
		messageMin: messageMin,
		messageMax: cfg.MessageMaxRecipients,
		dedup:      dedup,
	}, nil
}

// Dedup 是否启用重复通知保护。
func (p *Policy) Dedup() bool {
	return p.dedup
}

// Plan 按排名顺序取满足阈值的候选人直到上限；空列表返回空计划。
func (p *Policy) Plan(ranked []matching.MatchResult) Plan {
	return Plan{
		Email:    take(ranked, p.emailMin, p.emailMax),
		Messages: take(ranked, p.messageMin, p.messageMax),
	}
}

func take(ranked []matching.MatchResult, minScore float64, limit int) []matching.MatchResult {
	out := make([]matching.MatchResult, 0, min(len(ranked), limit))
	for _, r := range ranked {
		if len(out) >= limit {
			break
		}
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}
