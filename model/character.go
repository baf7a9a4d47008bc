package model

import "time"

const (
	MinAbilityScore     = 1
	MaxAbilityScore     = 30
	DefaultAbilityScore = 10
	DefaultLevel        = 1
)

// Character is a player character, optionally attached to a campaign.
type Character struct {
	UUIDKey
	Name         string    `gorm:"size:64;not null" json:"name"`
	Class        string    `gorm:"size:64" json:"class"`
	Race         string    `gorm:"size:64" json:"race"`
	Level        int       `gorm:"not null;default:1" json:"level"`
	Strength     int       `gorm:"not null;default:10" json:"strength"`
	Dexterity    int       `gorm:"not null;default:10" json:"dexterity"`
	Constitution int       `gorm:"not null;default:10" json:"constitution"`
	Intelligence int       `gorm:"not null;default:10" json:"intelligence"`
	Wisdom       int       `gorm:"not null;default:10" json:"wisdom"`
	Charisma     int       `gorm:"not null;default:10" json:"charisma"`
	Skills       string    `gorm:"type:text" json:"skills"`
	History      string    `gorm:"type:text" json:"history"`
	PlayerID     string    `gorm:"index;size:36;not null" json:"playerId"`
	CampaignID   *string   `gorm:"index;size:36" json:"campaignId"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Inventory []InventoryEntry `gorm:"foreignKey:CharacterID;constraint:OnDelete:CASCADE" json:"inventory,omitempty"`
}

// InventoryEntry is a stack of one item carried by a character.
type InventoryEntry struct {
	UUIDKey
	CharacterID string    `gorm:"uniqueIndex:idx_inventory_char_item;size:36;not null" json:"characterId"`
	ItemID      string    `gorm:"uniqueIndex:idx_inventory_char_item;index;size:36;not null" json:"itemId"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

func (InventoryEntry) TableName() string { return "character_inventory" }
