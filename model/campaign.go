package model

import "time"

// CampaignStatus is the lifecycle state of a campaign. Any state may follow any other.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign is a game run by one game master. InviteCode is unique and never
// changes after creation.
type Campaign struct {
	UUIDKey
	Name         string         `gorm:"size:128;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Setting      string         `gorm:"type:text" json:"setting"`
	Status       CampaignStatus `gorm:"size:16;not null;default:active" json:"status"`
	InviteCode   string         `gorm:"uniqueIndex;size:16;not null" json:"inviteCode"`
	GameMasterID string         `gorm:"index;size:36;not null" json:"gameMasterId"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	GameMaster *User         `gorm:"foreignKey:GameMasterID" json:"-"`
	Members    []Membership  `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Characters []Character   `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	NPCs       []NPC         `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Items      []Item        `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Sessions   []GameSession `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	Media      []Media       `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
}
