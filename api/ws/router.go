package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandlerFunc processes a decoded client message payload.
type HandlerFunc func(ctx context.Context, s *Session, payload json.RawMessage) error

// Router dispatches incoming WS packets to registered handlers.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates a Router that answers "ping" with "pong".
func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
	r.On("ping", func(_ context.Context, s *Session, _ json.RawMessage) error {
		s.Send(&Packet{Seq: s.LastSeq, Type: "pong"})
		return nil
	})
	return r
}

// On registers a HandlerFunc for the given message type.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// Dispatch decodes raw bytes, checks seq and invokes the matching handler.
func (r *Router) Dispatch(s *Session, raw []byte) {
	var pkt Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		r.logger.Warn("malformed packet", zap.String("user_id", s.UserID), zap.Error(err))
		return
	}

	// Seq == 0 means the client does not track sequence numbers.
	if pkt.Seq != 0 && pkt.Seq <= s.LastSeq {
		r.logger.Warn("replayed or out-of-order packet",
			zap.String("user_id", s.UserID),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", s.LastSeq))
		return
	}
	if pkt.Seq != 0 {
		s.LastSeq = pkt.Seq
	}

	s.TraceID = uuid.NewString()
	ctx := context.WithValue(context.Background(), ctxKeyTraceID{}, s.TraceID)

	fn, ok := r.handlers[pkt.Type]
	if !ok {
		r.logger.Debug("unhandled message type", zap.String("type", pkt.Type), zap.String("user_id", s.UserID))
		return
	}
	if err := fn(ctx, s, pkt.Payload); err != nil {
		r.logger.Error("handler error",
			zap.String("type", pkt.Type),
			zap.String("user_id", s.UserID),
			zap.String("trace_id", s.TraceID),
			zap.Error(err))
	}
}

type ctxKeyTraceID struct{}

// TraceIDFromCtx extracts the trace ID from a handler context.
func TraceIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraceID{}).(string); ok {
		return v
	}
	return ""
}
