package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/questforge/server/api/rest"
	"github.com/kasuganosora/questforge/server/api/sse"
	"github.com/kasuganosora/questforge/server/api/ws"
	"github.com/kasuganosora/questforge/server/audit"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/config"
	dbadapter "github.com/kasuganosora/questforge/server/db"
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
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		log.Fatalf("config: security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Events ----
	publishers := events.Multi{events.NewPubSubPublisher(pubsub)}
	if cfg.Events.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.AMQPExchange, logger)
		if err != nil {
			log.Fatalf("amqp: %v", err)
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
		logger.Info("AMQP publisher enabled", zap.String("exchange", cfg.Events.AMQPExchange))
	}

	// ---- Services ----
	checker := policy.NewChecker(db)
	campaignSvc := campaign.NewService(db, publishers, logger,
		campaign.WithCodeAttempts(cfg.Campaign.InviteCodeAttempts))
	con, err := console.New(db, logger, cfg.Security.BcryptCost)
	if err != nil {
		log.Fatalf("console: %v", err)
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if err := sched.AddCron("audit_purge", cfg.Audit.PurgeCron, auditSvc.RetentionTask(cfg.Audit.RetentionDays)); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accounts := mw.WithAccounts(mw.AccountsFromDB(db))
	apirest.Routes{
		Auth:        apirest.NewAuthHandler(db, c, cfg.Security),
		Campaigns:   apirest.NewCampaignHandler(campaignSvc, checker),
		Characters:  apirest.NewCharacterHandler(character.NewService(db), checker),
		NPCs:        apirest.NewNPCHandler(npc.NewService(db), checker),
		Items:       apirest.NewItemHandler(item.NewService(db), checker),
		Sessions:    apirest.NewSessionHandler(session.NewService(db), checker),
		Media:       apirest.NewMediaHandler(media.NewService(db), checker),
		Dev:         apirest.NewDevHandler(con, auditSvc, checker),
		Admin:       apirest.NewAdminHandler(db, sched, logger),
		RequireUser: mw.Auth(cfg.Security, c, accounts),
		RequireAdminKey: []gin.HandlerFunc{
			apirest.AdminAuth(cfg.Server.AdminKey),
			mw.IPWhitelist(cfg.Server.AdminIPs),
		},
	}.Register(r.Group("/api"))

	// ---- SSE ----
	// EventSource and browser WebSockets cannot send headers, so the token
	// rides in the query string.
	sseH := sse.NewHandler(pubsub, checker, logger)
	r.GET("/api/campaigns/:id/events", mw.QueryAuth(cfg.Security, c, accounts), sseH.ServeCampaign)

	// ---- WebSocket ----
	wsH := ws.NewHandler(pubsub, checker, ws.NewRouter(logger), cfg.Security.AllowedOrigins, logger)
	r.GET("/api/campaigns/:id/ws", mw.QueryAuth(cfg.Security, c, accounts), wsH.ServeCampaign)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
