package model

import (
	"time"

	"gorm.io/datatypes"
)

// NPC is a non-player character of a campaign.
type NPC struct {
	UUIDKey
	Name          string         `gorm:"size:128;not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Role          string         `gorm:"size:64" json:"role"`
	Attributes    datatypes.JSON `json:"attributes"`
	Relationships string         `gorm:"type:text" json:"relationships"`
	CampaignID    string         `gorm:"index;size:36;not null" json:"campaignId"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (NPC) TableName() string { return "npcs" }

type ItemType string

const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemConsumable ItemType = "consumable"
	ItemArtifact   ItemType = "artifact"
	ItemMisc       ItemType = "misc"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemWeapon, ItemArmor, ItemConsumable, ItemArtifact, ItemMisc:
		return true
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityVeryRare  Rarity = "very_rare"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityVeryRare, RarityLegendary:
		return true
	}
	return false
}

// Item is an object defined by a campaign's game master.
type Item struct {
	UUIDKey
	Name        string         `gorm:"size:128;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Type        ItemType       `gorm:"size:16;not null;default:misc" json:"type"`
	Rarity      Rarity         `gorm:"size:16;not null;default:common" json:"rarity"`
	Properties  datatypes.JSON `json:"properties"`
	CampaignID  string         `gorm:"index;size:36;not null" json:"campaignId"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	Holdings []InventoryEntry `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

// GameSession is the log of one play session.
type GameSession struct {
	UUIDKey
	Title      string    `gorm:"size:128;not null" json:"title"`
	Date       time.Time `gorm:"not null" json:"date"`
	Summary    string    `gorm:"type:text" json:"summary"`
	Notes      string    `gorm:"type:text" json:"notes"`
	Milestones string    `gorm:"type:text" json:"milestones"`
	CampaignID string    `gorm:"index;size:36;not null" json:"campaignId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (GameSession) TableName() string { return "sessions" }

// Media is metadata about an uploaded file; the bytes live elsewhere.
type Media struct {
	UUIDKey
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	URL        string    `gorm:"size:1024;not null" json:"url"`
	Type       string    `gorm:"size:64" json:"type"`
	CampaignID string    `gorm:"index;size:36;not null" json:"campaignId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Media) TableName() string { return "media" }
