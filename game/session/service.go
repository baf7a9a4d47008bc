// Package session keeps the log of a campaign's play sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Input struct {
	Title      string
	Date       time.Time
	Summary    string
	Notes      string
	Milestones string
}

type Patch struct {
	Title      *string
	Date       *time.Time
	Summary    *string
	Notes      *string
	Milestones *string
}

func (s *Service) Create(ctx context.Context, campaignID string, in Input) (*model.GameSession, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("session title is required: %w", game.ErrValidation)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("session date is required: %w", game.ErrValidation)
	}
	gs := &model.GameSession{
		Title:      title,
		Date:       in.Date,
		Summary:    in.Summary,
		Notes:      in.Notes,
		Milestones: in.Milestones,
		CampaignID: campaignID,
	}
	if err := s.db.WithContext(ctx).Create(gs).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return gs, nil
}

// List returns a campaign's sessions, most recent first.
func (s *Service) List(ctx context.Context, campaignID string) ([]model.GameSession, error) {
	list := []model.GameSession{}
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("date DESC").Find(&list).Error
	return list, err
}

func (s *Service) FindOne(ctx context.Context, id string) (*model.GameSession, error) {
	var gs model.GameSession
	err := s.db.WithContext(ctx).First(&gs, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &gs, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.GameSession, error) {
	gs, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("session title is required: %w", game.ErrValidation)
		}
		updates["title"] = title
	}
	if p.Date != nil {
		if p.Date.IsZero() {
			return nil, fmt.Errorf("session date is required: %w", game.ErrValidation)
		}
		updates["date"] = *p.Date
	}
	if p.Summary != nil {
		updates["summary"] = *p.Summary
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}
	if p.Milestones != nil {
		updates["milestones"] = *p.Milestones
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(gs).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.FindOne(ctx, id)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.GameSession{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, game.ErrNotFound)
	}
	return nil
}
