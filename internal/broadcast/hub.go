// Package broadcast fans committed market events out to websocket
// subscribers. Delivery is best-effort: a publish never blocks the engine,
// and a subscriber that cannot keep up loses messages rather than holding
// everyone else back.
package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before the read side
	// gives up on it.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; subscribers only ever send small
	// control payloads.
	maxMessageSize = 1024

	// sendBufferSize is the per-subscriber outgoing buffer.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub tracks websocket subscribers and routes engine events to them. Public
// events reach everyone; events carrying a target address reach only
// subscribers identified as that bettor.
type Hub struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[*Subscriber]bool
}

// Config holds hub dependencies.
type Config struct {
	Logger *zap.Logger
}

// New creates a hub.
func New(cfg Config) *Hub {
	return &Hub{
		logger: cfg.Logger,
		subs:   make(map[*Subscriber]bool),
	}
}

// Publish encodes the event once and hands it to every matching subscriber.
// Sends are non-blocking; a full subscriber buffer drops the frame and bumps
// the drop counter.
func (h *Hub) Publish(event types.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		EncodeErrorsTotal.Inc()
		h.logger.Error("event-encode-error",
			zap.String("event-type", string(event.Type)),
			zap.String("market-id", event.MarketID),
			zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if event.Target != nil && !sub.matches(*event.Target) {
			continue
		}

		select {
		case sub.send <- data:
			EventsDeliveredTotal.WithLabelValues(string(event.Type)).Inc()
		default:
			EventsDroppedTotal.WithLabelValues("buffer-full").Inc()
			h.logger.Warn("event-dropped-slow-subscriber",
				zap.String("event-type", string(event.Type)),
				zap.String("market-id", event.MarketID))
		}
	}
}

// Subscribe registers a connection. A non-nil bettor address additionally
// opts the subscriber into events targeted at that address. The returned
// subscriber owns its write loop; the caller drives the read side.
func (h *Hub) Subscribe(conn Conn, bettor *common.Address) *Subscriber {
	sub := &Subscriber{
		conn:   conn,
		bettor: bettor,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[sub] = true
	total := len(h.subs)
	h.mu.Unlock()

	SubscribersActive.Set(float64(total))
	h.logger.Info("subscriber-connected",
		zap.Int("total-subscribers", total),
		zap.Bool("targeted", bettor != nil))

	go sub.writePump()
	return sub
}

// Unsubscribe removes a subscriber and closes its connection. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	total := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}

	sub.stop()
	SubscribersActive.Set(float64(total))
	h.logger.Info("subscriber-disconnected", zap.Int("total-subscribers", total))
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*Subscriber]bool)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	SubscribersActive.Set(0)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// HandleWS upgrades the request and runs the subscriber until the peer goes
// away. An optional bettor query parameter identifies the subscriber for
// targeted position events.
// GET /ws?bettor=0x...
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	var bettor *common.Address
	if raw := r.URL.Query().Get("bettor"); raw != "" {
		if !common.IsHexAddress(raw) {
			http.Error(w, "invalid bettor address", http.StatusBadRequest)
			return
		}
		addr := common.HexToAddress(raw)
		bettor = &addr
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket-upgrade-error", zap.Error(err))
		return
	}

	sub := h.Subscribe(conn, bettor)
	defer h.Unsubscribe(sub)

	sub.readLoop(h.logger)
}
