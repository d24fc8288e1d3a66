package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	outboxSize   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Session is one connected app window.
type Session struct {
	hub    *Hub
	conn   *ws.Conn
	outbox chan []byte
}

func NewSession(hub *Hub, conn *ws.Conn) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
	}
}

// Run serves the session until the connection closes.
func (s *Session) Run(ctx context.Context) {
	s.hub.Register(s)
	defer s.hub.Unregister(s)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writeLoop(ctx)

	// Sessions are receive-only; CloseRead discards inbound frames and
	// cancels ctx when the peer goes away.
	ctx = s.conn.CloseRead(ctx)
	<-ctx.Done()
}

func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.outbox:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, ws.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
