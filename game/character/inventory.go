package character

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/questforge/server/db"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

// AddItemInput describes items put into a character's inventory.
type AddItemInput struct {
	ItemID   string
	Quantity int // 0 means 1
	Notes    string
}

// EntryPatch holds the inventory entry fields that may change.
type EntryPatch struct {
	Quantity *int
	Notes    *string
}

// AddItem puts an item of the character's campaign into its inventory. If
// the character already carries the item, the quantity is increased.
func (s *Service) AddItem(ctx context.Context, characterID string, in AddItemInput) (*model.InventoryEntry, error) {
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", game.ErrValidation)
	}

	c, err := s.get(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if c.CampaignID == nil {
		return nil, fmt.Errorf("character is not in a campaign: %w", game.ErrValidation)
	}
	var it model.Item
	err = s.db.WithContext(ctx).First(&it, "id = ?", in.ItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", in.ItemID, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if it.CampaignID != *c.CampaignID {
		return nil, fmt.Errorf("item belongs to another campaign: %w", game.ErrValidation)
	}

	entry := &model.InventoryEntry{CharacterID: c.ID, ItemID: it.ID, Quantity: qty, Notes: in.Notes}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
		if err := s.increment(ctx, c.ID, it.ID, qty, in.Notes); err != nil {
			return nil, err
		}
	}

	out := &model.InventoryEntry{}
	err = s.db.WithContext(ctx).Preload("Item").
		First(out, "character_id = ? AND item_id = ?", c.ID, it.ID).Error
	return out, err
}

func (s *Service) increment(ctx context.Context, characterID, itemID string, qty int, notes string) error {
	updates := map[string]interface{}{"quantity": gorm.Expr("quantity + ?", qty)}
	if notes != "" {
		updates["notes"] = notes
	}
	return s.db.WithContext(ctx).Model(&model.InventoryEntry{}).
		Where("character_id = ? AND item_id = ?", characterID, itemID).
		Updates(updates).Error
}

// UpdateEntry changes the quantity or notes of an inventory entry.
func (s *Service) UpdateEntry(ctx context.Context, characterID, entryID string, p EntryPatch) (*model.InventoryEntry, error) {
	if p.Quantity != nil && *p.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", game.ErrValidation)
	}
	entry, err := s.entry(ctx, characterID, entryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setInt(updates, "quantity", p.Quantity)
	setString(updates, "notes", p.Notes)
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.entry(ctx, characterID, entryID)
}

// RemoveEntry deletes an inventory entry.
func (s *Service) RemoveEntry(ctx context.Context, characterID, entryID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND character_id = ?", entryID, characterID).
		Delete(&model.InventoryEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("inventory entry %s: %w", entryID, game.ErrNotFound)
	}
	return nil
}

func (s *Service) entry(ctx context.Context, characterID, entryID string) (*model.InventoryEntry, error) {
	var e model.InventoryEntry
	err := s.db.WithContext(ctx).Preload("Item").
		First(&e, "id = ? AND character_id = ?", entryID, characterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("inventory entry %s: %w", entryID, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
