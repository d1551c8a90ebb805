package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionConfig tunes one websocket subscriber connection.
type SessionConfig struct {
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	SubscribeTimeout time.Duration
	MaxMessageSize   int64
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 75 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	return c
}

// Session pumps a subscriber's event stream over a websocket and tears
// the subscription down on any exit: explicit close, network drop, or a
// missed heartbeat. Leaving is what removes the connection from
// presence, so every path funnels through it.
type Session struct {
	conn   *websocket.Conn
	sub    *Subscriber
	cfg    SessionConfig
	logger *zap.Logger
}

// NewSession wraps an upgraded connection and its subscription.
func NewSession(conn *websocket.Conn, sub *Subscriber, cfg SessionConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{conn: conn, sub: sub, cfg: cfg.withDefaults(), logger: logger}
}

// Run blocks until the connection ends. The read loop exists only to
// consume control frames and detect disconnects; subscribers receive,
// they do not send.
func (s *Session) Run() {
	defer func() {
		s.sub.Leave()
		_ = s.conn.Close()
	}()

	go s.writePump()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.sub.Events():
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(event); err != nil {
				s.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
