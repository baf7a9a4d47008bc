// Package character manages player characters and their inventories.
package character

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

// Service manages characters.
type Service struct {
	db *gorm.DB
}

// NewService creates a character Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Abilities holds the six ability scores. Nil scores take the default on
// create and are left alone on update.
type Abilities struct {
	Strength     *int
	Dexterity    *int
	Constitution *int
	Intelligence *int
	Wisdom       *int
	Charisma     *int
}

// CreateInput describes a new character.
type CreateInput struct {
	Name       string
	Class      string
	Race       string
	Level      *int
	Abilities  Abilities
	Skills     string
	History    string
	CampaignID *string
}

// Patch holds the fields Update may change; nil fields are left alone.
type Patch struct {
	Name      *string
	Class     *string
	Race      *string
	Level     *int
	Abilities Abilities
	Skills    *string
	History   *string
}

// Create inserts a character owned by playerID. Level defaults to 1 and
// ability scores to 10.
func (s *Service) Create(ctx context.Context, in CreateInput, playerID string) (*model.Character, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("character name is required: %w", game.ErrValidation)
	}
	if err := validate(in.Level, in.Abilities); err != nil {
		return nil, err
	}
	if in.CampaignID != nil && *in.CampaignID == "" {
		in.CampaignID = nil
	}

	c := &model.Character{
		Name:         name,
		Class:        in.Class,
		Race:         in.Race,
		Level:        valueOr(in.Level, model.DefaultLevel),
		Strength:     valueOr(in.Abilities.Strength, model.DefaultAbilityScore),
		Dexterity:    valueOr(in.Abilities.Dexterity, model.DefaultAbilityScore),
		Constitution: valueOr(in.Abilities.Constitution, model.DefaultAbilityScore),
		Intelligence: valueOr(in.Abilities.Intelligence, model.DefaultAbilityScore),
		Wisdom:       valueOr(in.Abilities.Wisdom, model.DefaultAbilityScore),
		Charisma:     valueOr(in.Abilities.Charisma, model.DefaultAbilityScore),
		Skills:       in.Skills,
		History:      in.History,
		PlayerID:     playerID,
		CampaignID:   in.CampaignID,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}
	return c, nil
}

// FindByCampaign lists the characters attached to a campaign.
func (s *Service) FindByCampaign(ctx context.Context, campaignID string) ([]model.Character, error) {
	list := []model.Character{}
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("name").Find(&list).Error
	return list, err
}

// FindByPlayer lists the characters owned by a player.
func (s *Service) FindByPlayer(ctx context.Context, playerID string) ([]model.Character, error) {
	list := []model.Character{}
	err := s.db.WithContext(ctx).Where("player_id = ?", playerID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// FindOne loads a character with its inventory and the items in it.
func (s *Service) FindOne(ctx context.Context, id string) (*model.Character, error) {
	var c model.Character
	err := s.db.WithContext(ctx).
		Preload("Inventory", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at") }).
		Preload("Inventory.Item").
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("character %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if c.Inventory == nil {
		c.Inventory = []model.InventoryEntry{}
	}
	return &c, nil
}

// Update merges patch into the character, applying the same ranges as Create.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.Character, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if err := validate(p.Level, p.Abilities); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("character name is required: %w", game.ErrValidation)
		}
		updates["name"] = name
	}
	setString(updates, "class", p.Class)
	setString(updates, "race", p.Race)
	setString(updates, "skills", p.Skills)
	setString(updates, "history", p.History)
	setInt(updates, "level", p.Level)
	setInt(updates, "strength", p.Abilities.Strength)
	setInt(updates, "dexterity", p.Abilities.Dexterity)
	setInt(updates, "constitution", p.Abilities.Constitution)
	setInt(updates, "intelligence", p.Abilities.Intelligence)
	setInt(updates, "wisdom", p.Abilities.Wisdom)
	setInt(updates, "charisma", p.Abilities.Charisma)

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&model.Character{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return s.FindOne(ctx, id)
}

// Remove deletes a character and its inventory.
func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Character{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("character %s: %w", id, game.ErrNotFound)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*model.Character, error) {
	var c model.Character
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("character %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(level *int, a Abilities) error {
	if level != nil && *level < model.DefaultLevel {
		return fmt.Errorf("level must be at least 1: %w", game.ErrValidation)
	}
	scores := map[string]*int{
		"strength":     a.Strength,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"charisma":     a.Charisma,
	}
	for name, v := range scores {
		if v != nil && (*v < model.MinAbilityScore || *v > model.MaxAbilityScore) {
			return fmt.Errorf("%s must be between %d and %d: %w",
				name, model.MinAbilityScore, model.MaxAbilityScore, game.ErrValidation)
		}
	}
	return nil
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func setString(m map[string]interface{}, col string, v *string) {
	if v != nil {
		m[col] = *v
	}
}

func setInt(m map[string]interface{}, col string, v *int) {
	if v != nil {
		m[col] = *v
	}
}
