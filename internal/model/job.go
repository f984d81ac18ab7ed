package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus 职位状态。
type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

// Job 表示雇主发布的职位
// - Location: "City, Region/Country" 形式，逗号分隔
// - Skills/Keywords: JSON 数组列
// - MatchedAt: 最近一次完成职位提醒的时间，为空表示尚未匹配
// - CreatedAt/UpdatedAt: 由 GORM 自动维护

type Job struct {
	ID                string                      `gorm:"primaryKey" json:"id"`
	EmployerID        string                      `gorm:"index" json:"employer_id"`
	Title             string                      `json:"title"`
	Description       string                      `json:"description"`
	Location          string                      `json:"location"`
	Category          string                      `json:"category"`
	SubCategory       string                      `gorm:"index" json:"sub_category"`
	WorkType          string                      `json:"work_type"`
	WorkspaceOption   string                      `json:"workspace_option"`
	Skills            datatypes.JSONSlice[string] `json:"skills"`
	Keywords          datatypes.JSONSlice[string] `json:"keywords"`
	SalaryFrom        float64                     `json:"salary_from"`
	SalaryTo          float64                     `json:"salary_to"`
	Currency          string                      `json:"currency"`
	PostedAt          time.Time                   `json:"posted_at"`
	IsPremium         bool                        `json:"is_premium"`
	HasImmediateStart bool                        `json:"has_immediate_start"`
	Status            JobStatus                   `gorm:"index;default:open" json:"status"`
	MatchedAt         *time.Time                  `json:"matched_at,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// AverageSalary 返回薪资区间均值，只给出一端时取该端。
func (j Job) AverageSalary() float64 {
	switch {
	case j.SalaryFrom > 0 && j.SalaryTo > 0:
		return (j.SalaryFrom + j.SalaryTo) / 2
	case j.SalaryFrom > 0:
		return j.SalaryFrom
	default:
		return j.SalaryTo
	}
}
