package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/events"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Handler streams campaign events to browsers.
type Handler struct {
	pubsub    cache.PubSub
	checker   *policy.Checker
	logger    *zap.Logger
	keepalive time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, checker *policy.Checker, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, checker: checker, logger: logger, keepalive: defaultKeepalive}
}

// ServeCampaign handles GET /api/campaigns/:id/events?token=<jwt>.
// The route must be mounted behind middleware.QueryAuth. Callers who may
// view the campaign receive every event published on its channel.
func (h *Handler) ServeCampaign(c *gin.Context) {
	parsed, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	campaignID := parsed.String()
	actor := policy.Actor{UserID: mw.GetUserID(c), Role: model.Role(mw.GetRole(c))}
	err = h.checker.Require(c.Request.Context(), actor, policy.ActionViewCampaign, policy.Target{CampaignID: campaignID})
	switch {
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	case errors.Is(err, game.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	msgCh, unsub, err := h.pubsub.Subscribe(c.Request.Context(), events.Channel(campaignID))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer unsub()

	// Set SSE headers.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"campaignId\":%q}\n\n", campaignID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			ev := decodeEvent(msg.Payload)
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventName(ev), msg.Payload)
			c.Writer.Flush()
			if events.Revokes(ev, actor.UserID) &&
				h.checker.Require(c.Request.Context(), actor, policy.ActionViewCampaign, policy.Target{CampaignID: campaignID}) != nil {
				h.logger.Debug("sse access revoked",
					zap.String("user_id", actor.UserID), zap.String("campaign_id", campaignID))
				return
			}

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

func decodeEvent(payload string) events.Event {
	var ev events.Event
	_ = json.Unmarshal([]byte(payload), &ev)
	return ev
}

func eventName(ev events.Event) string {
	if ev.Type == "" {
		return "message"
	}
	return string(ev.Type)
}
