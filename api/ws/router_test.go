package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newSession creates a Session without a connection or write pump.
func newSession(userID string) *Session {
	return &Session{
		UserID:   userID,
		SendChan: make(chan []byte, 16),
		Done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
}

func makePacket(t *testing.T, seq uint64, msgType string, payload interface{}) []byte {
	t.Helper()
	p, _ := json.Marshal(payload)
	b, err := json.Marshal(Packet{Seq: seq, Type: msgType, Payload: p})
	require.NoError(t, err)
	return b
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var got json.RawMessage
	r.On("note", func(ctx context.Context, s *Session, payload json.RawMessage) error {
		got = payload
		assert.NotEmpty(t, TraceIDFromCtx(ctx))
		return nil
	})

	s := newSession("u1")
	r.Dispatch(s, makePacket(t, 1, "note", map[string]string{"text": "hi"}))
	assert.JSONEq(t, `{"text":"hi"}`, string(got))
}

func TestRouter_Dispatch_MalformedAndUnknown(t *testing.T) {
	r := NewRouter(zap.NewNop())
	called := false
	r.On("known", func(context.Context, *Session, json.RawMessage) error {
		called = true
		return nil
	})
	s := newSession("u1")
	r.Dispatch(s, []byte("not json"))
	r.Dispatch(s, makePacket(t, 1, "unknown", nil))
	assert.False(t, called)
}

func TestRouter_Dispatch_RejectsReplayedSeq(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var n int
	r.On("msg", func(context.Context, *Session, json.RawMessage) error {
		n++
		return nil
	})
	s := newSession("u1")

	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	r.Dispatch(s, makePacket(t, 3, "msg", nil))
	assert.Equal(t, 1, n)

	r.Dispatch(s, makePacket(t, 6, "msg", nil))
	// Seq 0 opts out of tracking.
	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	assert.Equal(t, 4, n)
	assert.Equal(t, uint64(6), s.LastSeq)
}

func TestRouter_Ping(t *testing.T) {
	r := NewRouter(zap.NewNop())
	s := newSession("u1")
	r.Dispatch(s, makePacket(t, 7, "ping", nil))

	require.Len(t, s.SendChan, 1)
	var pkt Packet
	require.NoError(t, json.Unmarshal(<-s.SendChan, &pkt))
	assert.Equal(t, "pong", pkt.Type)
	assert.Equal(t, uint64(7), pkt.Seq)
}

func TestSession_SendAfterClose(t *testing.T) {
	s := newSession("u1")
	s.Close()
	s.Close()
	assert.True(t, s.IsClosed())
	s.Send(&Packet{Type: "x"})
	assert.Empty(t, s.SendChan)
}
