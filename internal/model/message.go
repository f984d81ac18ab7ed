package model

import (
	"time"

	"gorm.io/datatypes"
)

// SystemMessage 站内系统消息，高匹配度候选人才会收到。
type SystemMessage struct {
	ID          string                      `gorm:"primaryKey" json:"id"`
	CandidateID string                      `gorm:"index" json:"candidate_id"`
	JobID       string                      `gorm:"index" json:"job_id"`
	Score       float64                     `json:"score"`
	Reasons     datatypes.JSONSlice[string] `json:"reasons"`
	Content     string                      `json:"content"`
	RepliedAt   *time.Time                  `json:"replied_at,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// Channel 通知渠道。
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelMessage Channel = "message"
)

// Notification 记录某职位已通知过的候选人，用于去重。
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobID       string    `gorm:"uniqueIndex:idx_notification_once" json:"job_id"`
	CandidateID string    `gorm:"uniqueIndex:idx_notification_once" json:"candidate_id"`
	Channel     Channel   `gorm:"uniqueIndex:idx_notification_once" json:"channel"`
	CreatedAt   time.Time `json:"created_at"`
}
