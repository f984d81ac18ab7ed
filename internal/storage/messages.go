package storage

import (
	"context"
	"fmt"

	"jobmatch/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CreateSystemMessage 写入站内系统消息并返回消息 ID。
func (s *Store) CreateSystemMessage(ctx context.Context, msg model.SystemMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return "", fmt.Errorf("create system message: %w", err)
	}
	return msg.ID, nil
}

// ListSystemMessages 返回候选人的系统消息，最新的在前。
func (s *Store) ListSystemMessages(ctx context.Context, candidateID string) ([]model.SystemMessage, error) {
	var msgs []model.SystemMessage
	if err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list system messages: %w", err)
	}
	return msgs, nil
}

// MarkNotified 记录候选人已就该职位收到某渠道通知；已记录过时返回 false。
func (s *Store) MarkNotified(ctx context.Context, jobID, candidateID string, channel model.Channel) (bool, error) {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Notification{
		JobID:       jobID,
		CandidateID: candidateID,
		Channel:     channel,
	})
	if tx.Error != nil {
		return false, fmt.Errorf("mark notified: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// Forget 删除通知记录，用于发送失败后允许重试。
func (s *Store) Forget(ctx context.Context, jobID, candidateID string, channel model.Channel) error {
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND candidate_id = ? AND channel = ?", jobID, candidateID, channel).
		Delete(&model.Notification{}).Error
	if err != nil {
		return fmt.Errorf("forget notification: %w", err)
	}
	return nil
}
