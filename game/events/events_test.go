package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestPubSubPublisher_DeliversOnCampaignChannel(t *testing.T) {
	ps, err := cache.NewPubSub(config.CacheConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, Channel("c1"))
	require.NoError(t, err)
	defer cancel()

	pub := NewPubSubPublisher(ps)
	require.NoError(t, pub.Publish(ctx, Event{Type: MemberJoined, CampaignID: "c1", UserID: "u1"}))

	select {
	case msg := <-ch:
		assert.Equal(t, "campaign:c1", msg.Channel)
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, MemberJoined, ev.Type)
		assert.Equal(t, "u1", ev.UserID)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("broker down")}
	c := &recorder{}

	err := Multi{a, b, c}.Publish(context.Background(), Event{Type: MemberRemoved, CampaignID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, a.got, 1)
	assert.Len(t, c.got, 1)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "campaign.member_invited", RoutingKey(MemberInvited))
}

func TestRevokes(t *testing.T) {
	tests := []struct {
		ev   Event
		want bool
	}{
		{Event{Type: CampaignDeleted}, true},
		{Event{Type: MemberRemoved, UserID: "u1"}, true},
		{Event{Type: MemberRemoved, UserID: "u2"}, false},
		{Event{Type: MemberResponded, UserID: "u1", Status: "declined"}, true},
		{Event{Type: MemberJoined, UserID: "u1"}, false},
		{Event{Type: CampaignUpdated}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Revokes(tt.ev, "u1"), "%s/%s", tt.ev.Type, tt.ev.UserID)
	}
}

func TestAMQPPublisher_RedialsOnPublish(t *testing.T) {
	dials := 0
	p := &AMQPPublisher{
		url:      "amqp://broker.invalid",
		exchange: "questforge.events",
		logger:   zap.NewNop(),
		dial: func(string) (*amqp.Connection, error) {
			dials++
			return nil, errors.New("connection refused")
		},
	}
	ctx := context.Background()
	ev := Event{Type: CampaignUpdated, CampaignID: "c1"}

	err := p.Publish(ctx, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amqp dial")
	require.Error(t, p.Publish(ctx, ev))
	assert.Equal(t, 2, dials)

	require.NoError(t, p.Close())
	assert.EqualError(t, p.Publish(ctx, ev), "amqp publisher closed")
	assert.Equal(t, 2, dials)
}
