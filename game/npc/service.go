// Package npc manages the non-player characters of a campaign.
package npc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Input struct {
	Name          string
	Description   string
	Role          string
	Attributes    json.RawMessage
	Relationships string
}

type Patch struct {
	Name          *string
	Description   *string
	Role          *string
	Attributes    json.RawMessage // nil leaves the attributes alone
	Relationships *string
}

func (s *Service) Create(ctx context.Context, campaignID string, in Input) (*model.NPC, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("npc name is required: %w", game.ErrValidation)
	}
	n := &model.NPC{
		Name:          name,
		Description:   in.Description,
		Role:          in.Role,
		Attributes:    jsonOrEmpty(in.Attributes),
		Relationships: in.Relationships,
		CampaignID:    campaignID,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("create npc: %w", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, campaignID string) ([]model.NPC, error) {
	list := []model.NPC{}
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("name").Find(&list).Error
	return list, err
}

func (s *Service) FindOne(ctx context.Context, id string) (*model.NPC, error) {
	var n model.NPC
	err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("npc %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.NPC, error) {
	n, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("npc name is required: %w", game.ErrValidation)
		}
		updates["name"] = name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Role != nil {
		updates["role"] = *p.Role
	}
	if p.Attributes != nil {
		updates["attributes"] = jsonOrEmpty(p.Attributes)
	}
	if p.Relationships != nil {
		updates["relationships"] = *p.Relationships
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(n).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.FindOne(ctx, id)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.NPC{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("npc %s: %w", id, game.ErrNotFound)
	}
	return nil
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
