package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/api/rest"
	"github.com/kasuganosora/questforge/server/audit"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/config"
	"github.com/kasuganosora/questforge/server/game/campaign"
	"github.com/kasuganosora/questforge/server/game/character"
	"github.com/kasuganosora/questforge/server/game/console"
	"github.com/kasuganosora/questforge/server/game/events"
	"github.com/kasuganosora/questforge/server/game/item"
	"github.com/kasuganosora/questforge/server/game/media"
	"github.com/kasuganosora/questforge/server/game/npc"
	"github.com/kasuganosora/questforge/server/game/policy"
	"github.com/kasuganosora/questforge/server/game/session"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/scheduler"
	"github.com/kasuganosora/questforge/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminKey = "admin-key"

type env struct {
	r     *gin.Engine
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
	audit *audit.Service
}

type envOption func(*config.ServerConfig)

func withAdminKey(key string) envOption {
	return func(s *config.ServerConfig) { s.AdminKey = key }
}

func withAdminIPs(ips ...string) envOption {
	return func(s *config.ServerConfig) { s.AdminIPs = ips }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour, BcryptCost: bcrypt.MinCost}
	srv := config.ServerConfig{AdminKey: testAdminKey}
	for _, o := range opts {
		o(&srv)
	}
	logger := zap.NewNop()

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	con, err := console.New(db, logger, bcrypt.MinCost)
	require.NoError(t, err)
	checker := policy.NewChecker(db)
	campSvc := campaign.NewService(db, events.NewPubSubPublisher(ps), logger)

	routes := rest.Routes{
		Auth:            rest.NewAuthHandler(db, c, sec),
		Campaigns:       rest.NewCampaignHandler(campSvc, checker),
		Characters:      rest.NewCharacterHandler(character.NewService(db), checker),
		NPCs:            rest.NewNPCHandler(npc.NewService(db), checker),
		Items:           rest.NewItemHandler(item.NewService(db), checker),
		Sessions:        rest.NewSessionHandler(session.NewService(db), checker),
		Media:           rest.NewMediaHandler(media.NewService(db), checker),
		Dev:             rest.NewDevHandler(con, auditSvc, checker),
		Admin:           rest.NewAdminHandler(db, sched, logger),
		RequireUser:     mw.Auth(sec, c, mw.WithAccounts(mw.AccountsFromDB(db))),
		RequireAdminKey: []gin.HandlerFunc{rest.AdminAuth(srv.AdminKey), mw.IPWhitelist(srv.AdminIPs)},
	}
	r := gin.New()
	r.Use(mw.TraceID())
	routes.Register(r.Group("/api"))
	return &env{r: r, db: db, cache: c, sec: sec, audit: auditSvc}
}

// tokenFor issues a session token for u the way login does.
func (e *env) tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := mw.GenerateToken(u.ID, string(u.Role), e.sec.JWTSecret, e.sec.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, e.cache.Set(context.Background(), mw.SessionKey(tok), u.ID, time.Hour))
	return tok
}

// user creates a user and returns it with a valid token.
func (e *env) user(t *testing.T, email string, role model.Role) (*model.User, string) {
	t.Helper()
	u := testutil.CreateUser(t, e.db, email, role)
	return u, e.tokenFor(t, u)
}

func (e *env) do(method, path string, body interface{}, token string, headers ...string) *httptest.ResponseRecorder {
	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
