package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/session"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	camp := testutil.CreateCampaign(t, db, gm, "A", "QST-SES1")
	svc := session.NewService(db)
	ctx := context.Background()

	day1 := time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)

	first, err := svc.Create(ctx, camp.ID, session.Input{Title: "Arrival", Date: day1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, camp.ID, session.Input{Title: "Trial", Date: day2, Milestones: "met the council"})
	require.NoError(t, err)

	list, err := svc.List(ctx, camp.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Trial", list[0].Title)

	summary := "the party arrives in Emon"
	got, err := svc.Update(ctx, first.ID, session.Patch{Summary: &summary})
	require.NoError(t, err)
	assert.Equal(t, summary, got.Summary)
	assert.Equal(t, "Arrival", got.Title)

	_, err = svc.Create(ctx, camp.ID, session.Input{Title: "No date"})
	assert.ErrorIs(t, err, game.ErrValidation)

	require.NoError(t, svc.Remove(ctx, first.ID))
	_, err = svc.FindOne(ctx, first.ID)
	assert.ErrorIs(t, err, game.ErrNotFound)
}
