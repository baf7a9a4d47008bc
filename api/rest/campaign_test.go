package rest_test

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/game/campaign"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inviteCodeRe = regexp.MustCompile(`^QST-[0-9A-Z]{4}$`)

func createCampaign(t *testing.T, e *env, token, name string) model.Campaign {
	t.Helper()
	w := e.do(http.MethodPost, "/api/campaigns", map[string]string{"name": name, "setting": "Exandria"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Campaign](t, w)
}

func TestCreateCampaign(t *testing.T) {
	e := newEnv(t)
	gm, tok := e.user(t, "gm@test.com", model.RoleGameMaster)

	camp := createCampaign(t, e, tok, "Vox Machina")
	assert.Regexp(t, inviteCodeRe, camp.InviteCode)
	assert.Equal(t, model.CampaignActive, camp.Status)
	assert.Equal(t, gm.ID, camp.GameMasterID)

	w := e.do(http.MethodPost, "/api/campaigns", map[string]string{"name": "X", "status": "archived"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPost, "/api/campaigns", map[string]string{"description": "no name"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoin_VoxMachinaTwice(t *testing.T) {
	e := newEnv(t)
	_, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	player, pTok := e.user(t, "vex@test.com", model.RolePlayer)
	camp := createCampaign(t, e, gmTok, "Vox Machina")

	// Lower case and padded input is normalized.
	body := map[string]string{"inviteCode": "  " + camp.InviteCode + " "}
	w := e.do(http.MethodPost, "/api/campaigns/join", body, pTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[campaign.JoinResult](t, w)
	assert.Equal(t, campaign.MsgJoined, first.Message)
	assert.Equal(t, camp.ID, first.CampaignID)

	w = e.do(http.MethodPost, "/api/campaigns/join", body, pTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, campaign.MsgAlreadyMember, decode[campaign.JoinResult](t, w).Message)

	var n int64
	e.db.Model(&model.Membership{}).Where("campaign_id = ? AND user_id = ?", camp.ID, player.ID).Count(&n)
	assert.Equal(t, int64(1), n)

	// The game master joining their own campaign writes nothing.
	w = e.do(http.MethodPost, "/api/campaigns/join", body, gmTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, campaign.MsgAlreadyMember, decode[campaign.JoinResult](t, w).Message)
	e.db.Model(&model.Membership{}).Where("campaign_id = ?", camp.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestJoin_UnknownCode(t *testing.T) {
	e := newEnv(t)
	_, tok := e.user(t, "p@test.com", model.RolePlayer)
	w := e.do(http.MethodPost, "/api/campaigns/join", map[string]string{"inviteCode": "QST-ZZZZ"}, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var n int64
	e.db.Model(&model.Membership{}).Count(&n)
	assert.Zero(t, n)
}

func TestListCampaigns_Scope(t *testing.T) {
	e := newEnv(t)
	_, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	_, pTok := e.user(t, "p@test.com", model.RolePlayer)
	camp := createCampaign(t, e, gmTok, "Vox Machina")
	e.do(http.MethodPost, "/api/campaigns/join", map[string]string{"inviteCode": camp.InviteCode}, pTok)

	owned := decode[[]model.Campaign](t, e.do(http.MethodGet, "/api/campaigns", nil, gmTok))
	require.Len(t, owned, 1)
	assert.Equal(t, camp.ID, owned[0].ID)

	assert.Empty(t, decode[[]model.Campaign](t, e.do(http.MethodGet, "/api/campaigns", nil, pTok)))
	joined := decode[[]model.Campaign](t, e.do(http.MethodGet, "/api/campaigns?scope=joined", nil, pTok))
	require.Len(t, joined, 1)
	assert.Equal(t, camp.ID, joined[0].ID)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/campaigns?scope=all", nil, pTok).Code)
}

func TestCampaignDetail_Access(t *testing.T) {
	e := newEnv(t)
	gm, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	_, pTok := e.user(t, "p@test.com", model.RolePlayer)
	_, strangerTok := e.user(t, "x@test.com", model.RolePlayer)
	_, adminTok := e.user(t, "adm@test.com", model.RoleAdmin)
	camp := createCampaign(t, e, gmTok, "Vox Machina")
	e.do(http.MethodPost, "/api/campaigns/join", map[string]string{"inviteCode": camp.InviteCode}, pTok)

	path := "/api/campaigns/" + camp.ID
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, path, nil, strangerTok).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, path, nil, adminTok).Code)

	w := e.do(http.MethodGet, path, nil, pTok)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Vox Machina", detail["name"])
	gmView := detail["gameMaster"].(map[string]interface{})
	assert.Equal(t, gm.ID, gmView["id"])
	assert.Len(t, detail["members"], 1)
	for _, key := range []string{"characters", "npcs", "items", "sessions", "media"} {
		assert.NotNil(t, detail[key], key)
	}

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/campaigns/"+uuid.NewString(), nil, gmTok).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/campaigns/42", nil, gmTok).Code)
}

func TestUpdateCampaign(t *testing.T) {
	e := newEnv(t)
	_, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	_, pTok := e.user(t, "p@test.com", model.RolePlayer)
	camp := createCampaign(t, e, gmTok, "Vox Machina")
	e.do(http.MethodPost, "/api/campaigns/join", map[string]string{"inviteCode": camp.InviteCode}, pTok)
	path := "/api/campaigns/" + camp.ID

	w := e.do(http.MethodPatch, path, map[string]string{"status": "paused", "name": "Mighty Nein"}, gmTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Campaign](t, w)
	assert.Equal(t, model.CampaignPaused, got.Status)
	assert.Equal(t, "Mighty Nein", got.Name)
	assert.Equal(t, "Exandria", got.Setting)
	assert.Equal(t, camp.InviteCode, got.InviteCode)

	// Members cannot manage.
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPatch, path, map[string]string{"name": "Mine"}, pTok).Code)

	// Immutable and unknown fields are rejected before reaching the service.
	w = e.do(http.MethodPatch, path, map[string]string{"inviteCode": "QST-AAAA"}, gmTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPatch, path, map[string]string{"gameMasterId": uuid.NewString()}, gmTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stored model.Campaign
	require.NoError(t, e.db.First(&stored, "id = ?", camp.ID).Error)
	assert.Equal(t, camp.InviteCode, stored.InviteCode)
}

func TestDeleteCampaign_Cascades(t *testing.T) {
	e := newEnv(t)
	_, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	_, pTok := e.user(t, "p@test.com", model.RolePlayer)
	camp := createCampaign(t, e, gmTok, "Vox Machina")
	e.do(http.MethodPost, "/api/campaigns/join", map[string]string{"inviteCode": camp.InviteCode}, pTok)

	w := e.do(http.MethodPost, "/api/characters", map[string]interface{}{"name": "Vex", "campaignId": camp.ID}, pTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/api/campaigns/"+camp.ID+"/npcs", map[string]string{"name": "Gilmore"}, gmTok)
	require.Equal(t, http.StatusCreated, w.Code)

	path := "/api/campaigns/" + camp.ID
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, nil, pTok).Code)
	require.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, nil, gmTok).Code)

	for _, m := range []interface{}{&model.Campaign{}, &model.Character{}, &model.NPC{}, &model.Membership{}} {
		var n int64
		e.db.Model(m).Count(&n)
		assert.Zero(t, n)
	}
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, nil, gmTok).Code)
}

func TestRemoveMember(t *testing.T) {
	e := newEnv(t)
	gm, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	p, pTok := e.user(t, "p@test.com", model.RolePlayer)
	q, qTok := e.user(t, "q@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, e.db, gm, "Vox Machina", "QST-RM01")
	testutil.AddMember(t, e.db, c, p, model.MembershipAccepted)
	testutil.AddMember(t, e.db, c, q, model.MembershipAccepted)
	base := "/api/campaigns/" + c.ID + "/members/"

	// A member cannot remove someone else, but can leave.
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, base+q.ID, nil, pTok).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, base+p.ID, nil, pTok).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, base+q.ID, nil, gmTok).Code)

	// Removing a non-member is a no-op.
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, base+q.ID, nil, gmTok).Code)
	_ = qTok

	var n int64
	e.db.Model(&model.Membership{}).Where("campaign_id = ?", c.ID).Count(&n)
	assert.Zero(t, n)
}

func TestPathIDs_NonCanonicalForms(t *testing.T) {
	e := newEnv(t)
	gm, _ := e.user(t, "gm@test.com", model.RoleGameMaster)
	p, pTok := e.user(t, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, e.db, gm, "Vox Machina", "QST-ID01")
	testutil.AddMember(t, e.db, c, p, model.MembershipAccepted)

	id := uuid.MustParse(c.ID)
	for _, form := range []string{
		strings.ToUpper(c.ID),
		"urn:uuid:" + c.ID,
		strings.ReplaceAll(c.ID, "-", ""),
	} {
		w := e.do(http.MethodGet, "/api/campaigns/"+form, nil, pTok)
		require.Equal(t, http.StatusOK, w.Code, form)
		assert.Equal(t, id.String(), decode[campaign.Detail](t, w).ID, form)
	}

	// Leaving with an upper-cased own id is still a self-removal.
	path := "/api/campaigns/" + c.ID + "/members/" + strings.ToUpper(p.ID)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, nil, pTok).Code)
	var n int64
	e.db.Model(&model.Membership{}).Where("campaign_id = ?", c.ID).Count(&n)
	assert.Zero(t, n)
}

func TestInviteAndRespond(t *testing.T) {
	e := newEnv(t)
	gm, gmTok := e.user(t, "gm@test.com", model.RoleGameMaster)
	_, pTok := e.user(t, "p@test.com", model.RolePlayer)
	c := testutil.CreateCampaign(t, e.db, gm, "Vox Machina", "QST-INV1")
	base := "/api/campaigns/" + c.ID

	w := e.do(http.MethodPost, base+"/members", map[string]string{"email": "p@test.com"}, gmTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.MembershipPending, decode[model.Membership](t, w).Status)

	assert.Equal(t, http.StatusNotFound,
		e.do(http.MethodPost, base+"/members", map[string]string{"email": "ghost@test.com"}, gmTok).Code)
	assert.Equal(t, http.StatusForbidden,
		e.do(http.MethodPost, base+"/members", map[string]string{"email": "gm@test.com"}, pTok).Code)

	pending := decode[[]model.Membership](t, e.do(http.MethodGet, "/api/campaigns/invitations", nil, pTok))
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Campaign)
	assert.Equal(t, "Vox Machina", pending[0].Campaign.Name)

	// Pending invitees cannot view yet.
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, base, nil, pTok).Code)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, base+"/invitation", map[string]string{}, pTok).Code)
	w = e.do(http.MethodPost, base+"/invitation", map[string]bool{"accept": true}, pTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.MembershipAccepted, decode[model.Membership](t, w).Status)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, base, nil, pTok).Code)

	// Answering twice conflicts.
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, base+"/invitation", map[string]bool{"accept": false}, pTok).Code)
	// No invitation at all.
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, base+"/invitation", map[string]bool{"accept": true}, gmTok).Code)
}
