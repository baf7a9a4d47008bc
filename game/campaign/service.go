// Package campaign implements campaigns, their memberships and invitations.
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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCodeAttempts = 5

// Service manages campaigns and memberships.
type Service struct {
	db       *gorm.DB
	events   events.Publisher
	gen      invite.Generator
	attempts int
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithGenerator replaces the invite code generator.
func WithGenerator(g invite.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithCodeAttempts bounds how many invite codes Create tries before giving up.
func WithCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// NewService creates a campaign Service. A nil publisher discards events.
func NewService(db *gorm.DB, pub events.Publisher, logger *zap.Logger, opts ...Option) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Service{
		db:       db,
		events:   pub,
		gen:      invite.Generate,
		attempts: defaultCodeAttempts,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateInput is the data needed to open a campaign.
type CreateInput struct {
	Name        string
	Description string
	Setting     string
	Status      model.CampaignStatus // empty means active
}

// Patch holds the fields Update may change; nil fields are left alone.
type Patch struct {
	Name        *string
	Description *string
	Setting     *string
	Status      *model.CampaignStatus
}

// Create opens a campaign run by gameMasterID with a fresh invite code.
// Invite code collisions are retried; when every attempt collides the call
// fails with game.ErrConflict.
func (s *Service) Create(ctx context.Context, in CreateInput, gameMasterID string) (*model.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("campaign name is required: %w", game.ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = model.CampaignActive
	} else if !status.Valid() {
		return nil, fmt.Errorf("unknown campaign status %q: %w", status, game.ErrValidation)
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		code, err := s.gen()
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		c := &model.Campaign{
			Name:         name,
			Description:  in.Description,
			Setting:      in.Setting,
			Status:       status,
			InviteCode:   code,
			GameMasterID: gameMasterID,
		}
		err = s.db.WithContext(ctx).Create(c).Error
		if err == nil {
			return c, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create campaign: %w", err)
		}
		s.logger.Debug("invite code collision",
			zap.String("code", code), zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("no free invite code after %d attempts: %w", s.attempts, game.ErrConflict)
}

// FindAll lists the campaigns run by the caller, newest first.
func (s *Service) FindAll(ctx context.Context, callerID string) ([]model.Campaign, error) {
	list := []model.Campaign{}
	err := s.db.WithContext(ctx).
		Where("game_master_id = ?", callerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// FindJoined lists the campaigns in which the caller holds an accepted membership.
func (s *Service) FindJoined(ctx context.Context, callerID string) ([]model.Campaign, error) {
	list := []model.Campaign{}
	err := s.db.WithContext(ctx).
		Joins("JOIN campaign_members ON campaign_members.campaign_id = campaigns.id").
		Where("campaign_members.user_id = ? AND campaign_members.status = ?", callerID, model.MembershipAccepted).
		Order("campaigns.created_at DESC").
		Find(&list).Error
	return list, err
}

// Detail is a campaign with everything that hangs off it.
type Detail struct {
	model.Campaign
	GameMaster model.Summary       `json:"gameMaster"`
	Characters []model.Character   `json:"characters"`
	NPCs       []model.NPC         `json:"npcs"`
	Items      []model.Item        `json:"items"`
	Sessions   []model.GameSession `json:"sessions"`
	Media      []model.Media       `json:"media"`
	Members    []model.Membership  `json:"members"`
}

// FindOne loads a campaign with its game master, dependents and members.
func (s *Service) FindOne(ctx context.Context, id string) (*Detail, error) {
	var c model.Campaign
	err := s.db.WithContext(ctx).
		Preload("GameMaster").
		Preload("Characters", ordered("name")).
		Preload("NPCs", ordered("name")).
		Preload("Items", ordered("name")).
		Preload("Sessions", ordered("date DESC")).
		Preload("Media", ordered("created_at DESC")).
		Preload("Members", ordered("created_at")).
		Preload("Members.User").
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("campaign %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	d := &Detail{
		Campaign:   c,
		Characters: orEmpty(c.Characters),
		NPCs:       orEmpty(c.NPCs),
		Items:      orEmpty(c.Items),
		Sessions:   orEmpty(c.Sessions),
		Media:      orEmpty(c.Media),
		Members:    orEmpty(c.Members),
	}
	if c.GameMaster != nil {
		d.GameMaster = c.GameMaster.Summary()
	}
	return d, nil
}

// Update merges patch into the campaign. The invite code and game master
// cannot be changed.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.Campaign, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("campaign name is required: %w", game.ErrValidation)
		}
		updates["name"] = name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Setting != nil {
		updates["setting"] = *p.Setting
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("unknown campaign status %q: %w", *p.Status, game.ErrValidation)
		}
		updates["status"] = *p.Status
	}
	if len(updates) == 0 {
		return c, nil
	}
	if err := s.db.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
		return nil, err
	}
	c, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.CampaignUpdated, CampaignID: id, Status: string(c.Status)})
	return c, nil
}

// Remove deletes a campaign. Its characters, NPCs, items, sessions, media
// and memberships are removed by the storage engine.
func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Campaign{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("campaign %s: %w", id, game.ErrNotFound)
	}
	s.publish(ctx, events.Event{Type: events.CampaignDeleted, CampaignID: id})
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("campaign %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish campaign event",
			zap.String("type", string(ev.Type)),
			zap.String("campaign_id", ev.CampaignID),
			zap.Error(err))
	}
}

func ordered(clause string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Order(clause) }
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
