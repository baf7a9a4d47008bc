package model

import "time"

// MembershipStatus tracks an invitation from pending to accepted or declined.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipAccepted MembershipStatus = "accepted"
	MembershipDeclined MembershipStatus = "declined"
)

// Membership links a user to a campaign they play in. At most one row exists
// per (campaign, user).
type Membership struct {
	UUIDKey
	CampaignID string           `gorm:"uniqueIndex:idx_member_campaign_user;size:36;not null" json:"campaignId"`
	UserID     string           `gorm:"uniqueIndex:idx_member_campaign_user;index;size:36;not null" json:"userId"`
	Email      string           `gorm:"size:128" json:"email"`
	Status     MembershipStatus `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
}

func (Membership) TableName() string { return "campaign_members" }
