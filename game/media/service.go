// Package media stores metadata about files attached to a campaign. The
// file contents are kept outside the database; only the URL is recorded.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Input struct {
	Filename string
	URL      string
	Type     string
}

type Patch struct {
	Filename *string
	URL      *string
	Type     *string
}

func (s *Service) Create(ctx context.Context, campaignID string, in Input) (*model.Media, error) {
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		return nil, fmt.Errorf("filename is required: %w", game.ErrValidation)
	}
	if err := checkURL(in.URL); err != nil {
		return nil, err
	}
	m := &model.Media{Filename: name, URL: in.URL, Type: in.Type, CampaignID: campaignID}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, campaignID string) ([]model.Media, error) {
	list := []model.Media{}
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (s *Service) FindOne(ctx context.Context, id string) (*model.Media, error) {
	var m model.Media
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("media %s: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.Media, error) {
	m, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Filename != nil {
		name := strings.TrimSpace(*p.Filename)
		if name == "" {
			return nil, fmt.Errorf("filename is required: %w", game.ErrValidation)
		}
		updates["filename"] = name
	}
	if p.URL != nil {
		if err := checkURL(*p.URL); err != nil {
			return nil, err
		}
		updates["url"] = *p.URL
	}
	if p.Type != nil {
		updates["type"] = *p.Type
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(m).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.FindOne(ctx, id)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Media{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("media %s: %w", id, game.ErrNotFound)
	}
	return nil
}

// checkURL accepts absolute http(s) URLs and server-relative paths.
func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return fmt.Errorf("invalid media url: %w", game.ErrValidation)
	}
	if u.IsAbs() && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported media url scheme %q: %w", u.Scheme, game.ErrValidation)
	}
	if !u.IsAbs() && !strings.HasPrefix(u.Path, "/") {
		return fmt.Errorf("media url must be absolute or start with /: %w", game.ErrValidation)
	}
	return nil
}
