package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 64
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
)

// Packet is the WS message envelope in both directions.
type Packet struct {
	Seq     uint64          `json:"seq,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one WebSocket subscriber of a campaign.
type Session struct {
	UserID     string
	CampaignID string
	Conn       *websocket.Conn

	SendChan chan []byte
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	closeOnce sync.Once
	logger    *zap.Logger
}

// NewSession creates a Session and starts its write goroutine.
func NewSession(userID, campaignID string, conn *websocket.Conn, logger *zap.Logger) *Session {
	s := &Session{
		UserID:     userID,
		CampaignID: campaignID,
		Conn:       conn,
		SendChan:   make(chan []byte, sendChanBuf),
		Done:       make(chan struct{}),
		logger:     logger,
	}
	go s.writePump()
	return s
}

// writePump drains SendChan and pings the peer so dead connections are
// noticed by the read deadline.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data := <-s.SendChan:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error", zap.String("user_id", s.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done:
			s.flush()
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued.
func (s *Session) flush() {
	for {
		select {
		case data := <-s.SendChan:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Send encodes pkt and queues it. Drops if the queue is full or closed.
func (s *Session) Send(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	s.SendRaw(data)
}

// SendRaw queues raw bytes without blocking.
func (s *Session) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
	default:
		s.logger.Warn("send channel full, dropping packet", zap.String("user_id", s.UserID))
	}
}

// Close signals the writePump to shut down.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

func (s *Session) setReadDeadline() {
	if s.Conn != nil {
		_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadline))
	}
}
