// Package item manages the items a game master defines for a campaign.
package item

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
	Name        string
	Description string
	Type        model.ItemType // empty means misc
	Rarity      model.Rarity   // empty means common
	Properties  json.RawMessage
}

type Patch struct {
	Name        *string
	Description *string
	Type        *model.ItemType
	Rarity      *model.Rarity
	Properties  json.RawMessage
}

func (s *Service) Create(ctx context.Context, campaignID string, in Input) (*model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("item name is required: %w", game.ErrValidation)
	}
	if in.Type == "" {
		in.Type = model.ItemMisc
	}
	if in.Rarity == "" {
		in.Rarity = model.RarityCommon
	}
	if err := validate(in.Type, in.Rarity); err != nil {
		return nil, err
	}
	it := &model.Item{
		Name:        name,
		Description: in.Description,
		Type:        in.Type,
		Rarity:      in.Rarity,
		Properties:  jsonOrEmpty(in.Properties),
		CampaignID:  campaignID,
	}
	if err := s.db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

func (s *Service) List(ctx context.Context, campaignID string) ([]model.Item, error) {
	list := []model.Item{}
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("name").Find(&list).Error
	return list, err
}

func (s *Service) FindOne(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	err := s.db.WithContext(ctx).First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.Item, error) {
	it, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("item name is required: %w", game.ErrValidation)
		}
		updates["name"] = name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("unknown item type %q: %w", *p.Type, game.ErrValidation)
		}
		updates["type"] = *p.Type
	}
	if p.Rarity != nil {
		if !p.Rarity.Valid() {
			return nil, fmt.Errorf("unknown rarity %q: %w", *p.Rarity, game.ErrValidation)
		}
		updates["rarity"] = *p.Rarity
	}
	if p.Properties != nil {
		updates["properties"] = jsonOrEmpty(p.Properties)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(it).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.FindOne(ctx, id)
}

// Remove deletes an item; inventory entries holding it go with it.
func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s: %w", id, game.ErrNotFound)
	}
	return nil
}

func validate(t model.ItemType, r model.Rarity) error {
	if !t.Valid() {
		return fmt.Errorf("unknown item type %q: %w", t, game.ErrValidation)
	}
	if !r.Valid() {
		return fmt.Errorf("unknown rarity %q: %w", r, game.ErrValidation)
	}
	return nil
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
