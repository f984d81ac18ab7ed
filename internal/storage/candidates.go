package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobmatch/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertCandidate 写入候选人档案，已存在则整体覆盖（created_at 保留）。
func (s *Store) UpsertCandidate(ctx context.Context, c *model.Candidate) error {
	if c.ID == "" {
		return fmt.Errorf("upsert candidate: id required")
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(c)
	if tx.Error != nil {
		return fmt.Errorf("upsert candidate: %w", tx.Error)
	}
	return nil
}

// FindCandidateByID 根据 ID 获取候选人。
func (s *Store) FindCandidateByID(ctx context.Context, id string) (*model.Candidate, error) {
	var c model.Candidate
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &c, nil
}

// FindCandidatesWithSkills 返回填写了技能的候选人，按创建时间升序。
func (s *Store) FindCandidatesWithSkills(ctx context.Context) ([]model.Candidate, error) {
	var rows []model.Candidate
	if err := s.db.WithContext(ctx).
		Where("skills IS NOT NULL AND skills <> ? AND skills <> ?", "[]", "null").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list candidates with skills: %w", err)
	}

	out := rows[:0]
	for _, c := range rows {
		for _, skill := range c.Skills {
			if strings.TrimSpace(skill) != "" {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// AddExclusion 为候选人追加不感兴趣的子类别，重复项忽略。
func (s *Store) AddExclusion(ctx context.Context, candidateID string, ex model.Exclusion) (*model.Candidate, error) {
	var out *model.Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Candidate
		if err := tx.First(&c, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		for _, existing := range c.NotInterested {
			if strings.EqualFold(existing.Category, ex.Category) && strings.EqualFold(existing.SubCategory, ex.SubCategory) {
				out = &c
				return nil
			}
		}
		c.NotInterested = append(c.NotInterested, ex)
		if err := tx.Model(&c).Update("not_interested", c.NotInterested).Error; err != nil {
			return err
		}
		out = &c
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("add exclusion: %w", err)
	}
	return out, nil
}
