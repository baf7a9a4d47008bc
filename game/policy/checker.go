package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   model.Role
}

// Target names the records an operation touches. Empty fields are ignored.
// When CharacterID is set and the character belongs to a campaign, that
// campaign is used unless CampaignID is given explicitly.
type Target struct {
	CampaignID    string
	CharacterID   string
	SubjectUserID string
}

// Checker resolves Facts from storage and evaluates rules.
type Checker struct {
	db *gorm.DB
}

// NewChecker creates a Checker.
func NewChecker(db *gorm.DB) *Checker {
	return &Checker{db: db}
}

// Require returns nil when the actor may perform action on target. It
// returns an error wrapping game.ErrNotFound when a target record is
// missing, and game.ErrForbidden when the rule denies the action.
func (c *Checker) Require(ctx context.Context, actor Actor, action Action, target Target) error {
	facts, err := c.Facts(ctx, actor, target)
	if err != nil {
		return err
	}
	if !Can(facts, action) {
		return fmt.Errorf("%s: %w", action, game.ErrForbidden)
	}
	return nil
}

// Facts looks up the caller's relation to target.
func (c *Checker) Facts(ctx context.Context, actor Actor, target Target) (Facts, error) {
	f := Facts{IsAdmin: actor.Role == model.RoleAdmin}
	db := c.db.WithContext(ctx)

	campaignID := target.CampaignID
	if target.CharacterID != "" {
		var ch model.Character
		err := db.Select("id", "player_id", "campaign_id").First(&ch, "id = ?", target.CharacterID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return f, fmt.Errorf("character %s: %w", target.CharacterID, game.ErrNotFound)
		}
		if err != nil {
			return f, err
		}
		f.IsSelf = ch.PlayerID == actor.UserID
		if campaignID == "" && ch.CampaignID != nil {
			campaignID = *ch.CampaignID
		}
	}
	if target.SubjectUserID != "" && target.SubjectUserID == actor.UserID {
		f.IsSelf = true
	}

	if campaignID != "" {
		var camp model.Campaign
		err := db.Select("id", "game_master_id").First(&camp, "id = ?", campaignID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return f, fmt.Errorf("campaign %s: %w", campaignID, game.ErrNotFound)
		}
		if err != nil {
			return f, err
		}
		f.OwnsCampaign = camp.GameMasterID == actor.UserID
		if !f.OwnsCampaign {
			var n int64
			err := db.Model(&model.Membership{}).
				Where("campaign_id = ? AND user_id = ? AND status = ?", campaignID, actor.UserID, model.MembershipAccepted).
				Count(&n).Error
			if err != nil {
				return f, err
			}
			f.IsMember = n > 0
		}
	}
	return f, nil
}
