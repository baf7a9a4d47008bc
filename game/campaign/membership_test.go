package campaign_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/campaign"
	"github.com/kasuganosora/questforge/server/game/events"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestJoin_TwiceIsIdempotent(t *testing.T) {
	svc, db, pub := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	ctx := context.Background()

	c, err := svc.Create(ctx, campaign.CreateInput{Name: "Vox Machina"}, gm.ID)
	require.NoError(t, err)

	res, err := svc.Join(ctx, c.InviteCode, p.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.MsgJoined, res.Message)
	assert.Equal(t, c.ID, res.CampaignID)

	res, err = svc.Join(ctx, c.InviteCode, p.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.MsgAlreadyMember, res.Message)

	var n int64
	db.Model(&model.Membership{}).Where("campaign_id = ? AND user_id = ?", c.ID, p.ID).Count(&n)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []events.Type{events.MemberJoined}, pub.types())
}

func TestJoin_LosingConcurrentInsertIsAlreadyMember(t *testing.T) {
	svc, db, pub := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, db, gm, "Vox Machina", "QST-RACE")

	// Another request inserts the membership between Join's lookup and its insert.
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:join_race", func(tx *gorm.DB) {
		m, ok := tx.Statement.Dest.(*model.Membership)
		if !ok || raced || m.UserID != p.ID {
			return
		}
		raced = true
		winner := &model.Membership{CampaignID: c.ID, UserID: p.ID, Email: p.Email, Status: model.MembershipAccepted}
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Create(winner).Error)
	}))

	res, err := svc.Join(context.Background(), c.InviteCode, p.ID)
	require.NoError(t, err)
	assert.True(t, raced)
	assert.Equal(t, campaign.MsgAlreadyMember, res.Message)
	assert.Equal(t, c.ID, res.CampaignID)

	var n int64
	db.Model(&model.Membership{}).Where("campaign_id = ? AND user_id = ?", c.ID, p.ID).Count(&n)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, pub.types())
}

func TestJoin_NormalisesCode(t *testing.T) {
	svc, db, _ := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-AB12")

	res, err := svc.Join(context.Background(), "  qst-ab12 ", p.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, res.CampaignID)
}

func TestJoin_UnknownCode(t *testing.T) {
	svc, db, _ := newService(t)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)

	for _, code := range []string{"QST-ZZZZ", "QST-ZZ", "garbage", ""} {
		_, err := svc.Join(context.Background(), code, p.ID)
		assert.ErrorIs(t, err, game.ErrNotFound, code)
	}

	var n int64
	db.Model(&model.Membership{}).Count(&n)
	assert.Zero(t, n)
}

func TestJoin_GameMasterIsAlreadyMember(t *testing.T) {
	svc, db, _ := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-GM01")

	res, err := svc.Join(context.Background(), c.InviteCode, gm.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.MsgAlreadyMember, res.Message)

	var n int64
	db.Model(&model.Membership{}).Count(&n)
	assert.Zero(t, n)
}

func TestJoin_AcceptsPendingInvitation(t *testing.T) {
	svc, db, _ := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-PND1")
	testutil.AddMember(t, db, c, p, model.MembershipDeclined)

	res, err := svc.Join(context.Background(), c.InviteCode, p.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.MsgJoined, res.Message)

	var m model.Membership
	require.NoError(t, db.First(&m, "campaign_id = ? AND user_id = ?", c.ID, p.ID).Error)
	assert.Equal(t, model.MembershipAccepted, m.Status)
}

func TestRemoveMember(t *testing.T) {
	svc, db, pub := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-RM01")
	testutil.AddMember(t, db, c, p, model.MembershipAccepted)
	ctx := context.Background()

	require.NoError(t, svc.RemoveMember(ctx, c.ID, p.ID))
	var n int64
	db.Model(&model.Membership{}).Count(&n)
	assert.Zero(t, n)

	// removing again, or removing a stranger, is a no-op
	require.NoError(t, svc.RemoveMember(ctx, c.ID, p.ID))
	require.NoError(t, svc.RemoveMember(ctx, c.ID, uuid.NewString()))
	assert.Equal(t, []events.Type{events.MemberRemoved}, pub.types())
}

func TestInviteAndRespond(t *testing.T) {
	svc, db, pub := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	p := testutil.CreateUser(t, db, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-INV1")
	ctx := context.Background()

	m, err := svc.Invite(ctx, c.ID, " P@Test.com ")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipPending, m.Status)
	assert.Equal(t, p.ID, m.UserID)

	again, err := svc.Invite(ctx, c.ID, "p@test.com")
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	pending, err := svc.PendingInvitations(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Campaign)
	assert.Equal(t, "A", pending[0].Campaign.Name)

	resp, err := svc.Respond(ctx, c.ID, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipAccepted, resp.Status)

	_, err = svc.Respond(ctx, c.ID, p.ID, false)
	assert.ErrorIs(t, err, game.ErrConflict)

	pending, err = svc.PendingInvitations(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Equal(t, []events.Type{events.MemberInvited, events.MemberResponded}, pub.types())
}

func TestInvite_Errors(t *testing.T) {
	svc, db, _ := newService(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	c := testutil.CreateCampaign(t, db, gm, "A", "QST-INV2")
	ctx := context.Background()

	_, err := svc.Invite(ctx, c.ID, "nobody@test.com")
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = svc.Invite(ctx, uuid.NewString(), "gm@test.com")
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = svc.Invite(ctx, c.ID, "gm@test.com")
	assert.ErrorIs(t, err, game.ErrValidation)

	_, err = svc.Respond(ctx, c.ID, uuid.NewString(), true)
	assert.ErrorIs(t, err, game.ErrNotFound)
}
