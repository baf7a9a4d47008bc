package testutil

import (
	"testing"

	"github.com/kasuganosora/questforge/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser inserts a user with the given role. The password hash is a
// placeholder; tests that log in hash their own.
func CreateUser(t *testing.T, db *gorm.DB, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(u).Error, "CreateUser")
	return u
}

// CreateCampaign inserts an active campaign run by gm.
func CreateCampaign(t *testing.T, db *gorm.DB, gm *model.User, name, code string) *model.Campaign {
	t.Helper()
	c := &model.Campaign{Name: name, InviteCode: code, GameMasterID: gm.ID, Status: model.CampaignActive}
	require.NoError(t, db.Create(c).Error, "CreateCampaign")
	return c
}

// AddMember inserts a membership row with the given status.
func AddMember(t *testing.T, db *gorm.DB, c *model.Campaign, u *model.User, status model.MembershipStatus) *model.Membership {
	t.Helper()
	m := &model.Membership{CampaignID: c.ID, UserID: u.ID, Email: u.Email, Status: status}
	require.NoError(t, db.Create(m).Error, "AddMember")
	return m
}
