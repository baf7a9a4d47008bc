package media_test

import (
	"context"
	"testing"

	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/media"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedia_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	camp := testutil.CreateCampaign(t, db, gm, "A", "QST-MED1")
	svc := media.NewService(db)
	ctx := context.Background()

	m, err := svc.Create(ctx, camp.ID, media.Input{Filename: "map.png", URL: "/uploads/map.png", Type: "image/png"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, camp.ID, media.Input{Filename: "cdn.png", URL: "https://cdn.example.com/cdn.png"})
	require.NoError(t, err)

	list, err := svc.List(ctx, camp.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	name := "world-map.png"
	got, err := svc.Update(ctx, m.ID, media.Patch{Filename: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Filename)
	assert.Equal(t, "/uploads/map.png", got.URL)

	require.NoError(t, svc.Remove(ctx, m.ID))
	_, err = svc.FindOne(ctx, m.ID)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestMedia_RejectsBadURL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gm := testutil.CreateUser(t, db, "gm@test.com", model.RoleGameMaster)
	camp := testutil.CreateCampaign(t, db, gm, "A", "QST-MED2")
	svc := media.NewService(db)
	ctx := context.Background()

	for _, u := range []string{"", "javascript:alert(1)", "relative/path.png", "ftp://host/x"} {
		_, err := svc.Create(ctx, camp.ID, media.Input{Filename: "x", URL: u})
		assert.ErrorIs(t, err, game.ErrValidation, u)
	}
}
