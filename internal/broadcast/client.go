package broadcast

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is the slice of *websocket.Conn the hub writes through. Tests inject a
// fake; production passes the upgraded gorilla connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// Subscriber is one connected client. Frames flow through the send buffer so
// a slow peer stalls only its own write pump.
type Subscriber struct {
	conn   Conn
	bettor *common.Address
	send   chan []byte

	stopOnce sync.Once
	done     chan struct{}
}

func (s *Subscriber) matches(addr common.Address) bool {
	return s.bettor != nil && *s.bettor == addr
}

// stop tears the subscriber down exactly once. The write pump exits on done
// and closes the underlying connection.
func (s *Subscriber) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, nil)
			return

		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains inbound frames until the peer disconnects. Subscribers have
// nothing to say; reading only services pong handling and close detection.
func (s *Subscriber) readLoop(logger *zap.Logger) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("subscriber-read-error", zap.Error(err))
			}
			return
		}
	}
}
