package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/questforge/server/db"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/events"
	"github.com/kasuganosora/questforge/server/game/invite"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

const (
	MsgAlreadyMember = "Already a member"
	MsgJoined        = "Joined campaign"
)

// JoinResult is returned by Join.
type JoinResult struct {
	Message    string `json:"message"`
	CampaignID string `json:"campaignId"`
}

// Join adds userID to the campaign holding inviteCode. Joining is
// idempotent: the game master and existing members get MsgAlreadyMember
// and no row is written. A pending or declined invitation is accepted. A
// malformed code is reported as not found.
func (s *Service) Join(ctx context.Context, inviteCode, userID string) (*JoinResult, error) {
	code := invite.Normalize(inviteCode)
	if !invite.Valid(code) {
		return nil, fmt.Errorf("invite code %q: %w", code, game.ErrNotFound)
	}
	tx := s.db.WithContext(ctx)

	var c model.Campaign
	err := tx.Select("id", "game_master_id").First(&c, "invite_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invite code %q: %w", code, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	already := &JoinResult{Message: MsgAlreadyMember, CampaignID: c.ID}
	if c.GameMasterID == userID {
		return already, nil
	}

	var m model.Membership
	err = tx.Where("campaign_id = ? AND user_id = ?", c.ID, userID).First(&m).Error
	switch {
	case err == nil:
		if m.Status == model.MembershipAccepted {
			return already, nil
		}
		if err := tx.Model(&m).Update("status", model.MembershipAccepted).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		var u model.User
		if err := tx.Select("id", "email").First(&u, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("user %s: %w", userID, game.ErrNotFound)
			}
			return nil, err
		}
		m = model.Membership{CampaignID: c.ID, UserID: userID, Email: u.Email, Status: model.MembershipAccepted}
		if err := tx.Create(&m).Error; err != nil {
			// A concurrent join won the race.
			if db.IsUniqueViolation(err) {
				return already, nil
			}
			return nil, err
		}
	default:
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.MemberJoined, CampaignID: c.ID, UserID: userID,
		Status: string(model.MembershipAccepted)})
	return &JoinResult{Message: MsgJoined, CampaignID: c.ID}, nil
}

// RemoveMember deletes the membership of userID in the campaign. Removing a
// user who is not a member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, campaignID, userID string) error {
	res := s.db.WithContext(ctx).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Delete(&model.Membership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, events.Event{Type: events.MemberRemoved, CampaignID: campaignID, UserID: userID})
	}
	return nil
}

// Invite creates a pending membership for the user registered under email.
// An existing membership is returned unchanged.
func (s *Service) Invite(ctx context.Context, campaignID, email string) (*model.Membership, error) {
	c, err := s.get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	tx := s.db.WithContext(ctx)

	var u model.User
	err = tx.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if u.ID == c.GameMasterID {
		return nil, fmt.Errorf("the game master cannot be invited: %w", game.ErrValidation)
	}

	m := &model.Membership{CampaignID: c.ID, UserID: u.ID, Email: email, Status: model.MembershipPending}
	if err := tx.Create(m).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
		existing := &model.Membership{}
		if err := tx.Where("campaign_id = ? AND user_id = ?", c.ID, u.ID).First(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	s.publish(ctx, events.Event{Type: events.MemberInvited, CampaignID: c.ID, UserID: u.ID,
		Status: string(model.MembershipPending)})
	return m, nil
}

// Respond answers the caller's pending invitation to the campaign.
func (s *Service) Respond(ctx context.Context, campaignID, userID string, accept bool) (*model.Membership, error) {
	tx := s.db.WithContext(ctx)
	var m model.Membership
	err := tx.Where("campaign_id = ? AND user_id = ?", campaignID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invitation to campaign %s: %w", campaignID, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.Status != model.MembershipPending {
		return nil, fmt.Errorf("invitation already %s: %w", m.Status, game.ErrConflict)
	}

	status := model.MembershipDeclined
	if accept {
		status = model.MembershipAccepted
	}
	if err := tx.Model(&m).Update("status", status).Error; err != nil {
		return nil, err
	}
	m.Status = status
	s.publish(ctx, events.Event{Type: events.MemberResponded, CampaignID: campaignID, UserID: userID,
		Status: string(status)})
	return &m, nil
}

// PendingInvitations lists the caller's unanswered invitations with their campaigns.
func (s *Service) PendingInvitations(ctx context.Context, userID string) ([]model.Membership, error) {
	list := []model.Membership{}
	err := s.db.WithContext(ctx).
		Preload("Campaign").
		Where("user_id = ? AND status = ?", userID, model.MembershipPending).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
