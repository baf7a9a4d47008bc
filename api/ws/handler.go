// Package ws streams campaign events over WebSocket for clients that prefer
// it to server-sent events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/events"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
	"go.uber.org/zap"
)

// Handler upgrades campaign event subscriptions to WebSocket.
type Handler struct {
	pubsub   cache.PubSub
	checker  *policy.Checker
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket Handler. An empty allowedOrigins permits
// all origins (development only).
func NewHandler(pubsub cache.PubSub, checker *policy.Checker, router *Router, allowedOrigins []string, logger *zap.Logger) *Handler {
	h := &Handler{pubsub: pubsub, checker: checker, router: router, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeCampaign handles GET /api/campaigns/:id/ws?token=<jwt>. It must be
// mounted behind middleware.QueryAuth.
func (h *Handler) ServeCampaign(c *gin.Context) {
	parsed, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	campaignID := parsed.String()
	userID := mw.GetUserID(c)
	actor := policy.Actor{UserID: userID, Role: model.Role(mw.GetRole(c))}
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

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	sess := NewSession(userID, campaignID, conn, h.logger)
	msgCh, unsub, err := h.pubsub.Subscribe(c.Request.Context(), events.Channel(campaignID))
	if err != nil {
		h.logger.Error("ws subscribe failed", zap.Error(err))
		sess.Close()
		return
	}

	sess.Send(&Packet{Type: "connected", Payload: mustJSON(gin.H{"campaignId": campaignID})})
	go h.forward(sess, actor, msgCh)

	h.readPump(sess)
	unsub()
	h.logger.Debug("ws subscriber disconnected",
		zap.String("user_id", userID), zap.String("campaign_id", campaignID))
}

// forward relays published events to the session until either side closes.
// The session is closed once an event ends the actor's access.
func (h *Handler) forward(s *Session, actor policy.Actor, msgCh <-chan *cache.Message) {
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				s.Close()
				return
			}
			var ev events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil || ev.Type == "" {
				h.logger.Warn("dropping malformed event", zap.String("channel", msg.Channel))
				continue
			}
			s.Send(&Packet{Type: string(ev.Type), Payload: json.RawMessage(msg.Payload)})
			if events.Revokes(ev, actor.UserID) && !h.canView(actor, s.CampaignID) {
				h.logger.Debug("ws access revoked",
					zap.String("user_id", actor.UserID), zap.String("campaign_id", s.CampaignID))
				s.Close()
				return
			}
		case <-s.Done:
			return
		}
	}
}

func (h *Handler) canView(actor policy.Actor, campaignID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.checker.Require(ctx, actor, policy.ActionViewCampaign, policy.Target{CampaignID: campaignID}) == nil
}

// readPump reads client messages until the connection closes.
func (h *Handler) readPump(s *Session) {
	defer s.Close()

	s.setReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.setReadDeadline()
		return nil
	})
	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close", zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}
		s.setReadDeadline()
		h.router.Dispatch(s, raw)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
