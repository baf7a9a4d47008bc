// Package events fans campaign membership changes out to subscribers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kasuganosora/questforge/server/cache"
)

// Type identifies what happened to a campaign.
type Type string

const (
	MemberJoined    Type = "member_joined"
	MemberInvited   Type = "member_invited"
	MemberResponded Type = "member_responded"
	MemberRemoved   Type = "member_removed"
	CampaignUpdated Type = "campaign_updated"
	CampaignDeleted Type = "campaign_deleted"
)

// Event is the JSON payload delivered to subscribers.
type Event struct {
	Type       Type      `json:"type"`
	CampaignID string    `json:"campaignId"`
	UserID     string    `json:"userId,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// Revokes reports whether ev may end userID's access to the campaign, in
// which case open streams must check access again.
func Revokes(ev Event, userID string) bool {
	switch ev.Type {
	case CampaignDeleted:
		return true
	case MemberRemoved, MemberResponded:
		return ev.UserID == userID
	}
	return false
}

// Channel is the pub/sub channel carrying events of one campaign.
func Channel(campaignID string) string { return "campaign:" + campaignID }

// Publisher delivers events. Callers treat publishing as best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PubSubPublisher publishes to the cache PubSub (local or Redis), which also
// feeds the SSE stream.
type PubSubPublisher struct {
	ps cache.PubSub
}

// NewPubSubPublisher creates a PubSubPublisher.
func NewPubSubPublisher(ps cache.PubSub) *PubSubPublisher {
	return &PubSubPublisher{ps: ps}
}

func (p *PubSubPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ps.Publish(ctx, Channel(ev.CampaignID), string(body))
}
