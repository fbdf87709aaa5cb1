package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// fakeConn records text frames written through it. A non-nil writeGate makes
// every write block until the gate is closed, simulating a stalled peer.
type fakeConn struct {
	mu        sync.Mutex
	frames    [][]byte
	writeGate chan struct{}
	closed    bool

	readBlock chan struct{}
	readOnce  sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{readBlock: make(chan struct{})}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.writeGate != nil {
		<-c.writeGate
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	c.frames = append(c.frames, append([]byte(nil), data...))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.readBlock
	return 0, nil, websocket.ErrCloseSent
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetReadLimit(int64)               {}
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.readOnce.Do(func() { close(c.readBlock) })
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func waitForFrames(t *testing.T, conn *fakeConn, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn.frameCount() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", want, conn.frameCount())
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := New(Config{Logger: zap.NewNop()})
	defer hub.Close()

	connA, connB := newFakeConn(), newFakeConn()
	hub.Subscribe(connA, nil)
	hub.Subscribe(connB, nil)

	hub.Publish(types.Event{
		Type:     types.EventPriceChanged,
		MarketID: "m1",
		Payload:  types.PriceChangedPayload{PBall: 0.6, PStrike: 0.4},
	})

	waitForFrames(t, connA, 1)
	waitForFrames(t, connB, 1)

	var event struct {
		Type     types.EventType `json:"type"`
		MarketID string          `json:"market_id"`
	}
	if err := json.Unmarshal(connA.lastFrame(), &event); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if event.Type != types.EventPriceChanged || event.MarketID != "m1" {
		t.Errorf("frame = %+v", event)
	}
}

func TestTargetedEventReachesOnlyMatchingBettor(t *testing.T) {
	hub := New(Config{Logger: zap.NewNop()})
	defer hub.Close()

	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	aliceConn, bobConn, anonConn := newFakeConn(), newFakeConn(), newFakeConn()
	hub.Subscribe(aliceConn, &alice)
	hub.Subscribe(bobConn, &bob)
	hub.Subscribe(anonConn, nil)

	hub.Publish(types.Event{
		Type:     types.EventPosition,
		MarketID: "m1",
		Target:   &alice,
	})

	waitForFrames(t, aliceConn, 1)

	// Broadcast afterwards; once it lands everywhere the targeted event has
	// had every chance to be misdelivered.
	hub.Publish(types.Event{Type: types.EventMarketStatus, MarketID: "m1"})
	waitForFrames(t, aliceConn, 2)
	waitForFrames(t, bobConn, 1)
	waitForFrames(t, anonConn, 1)

	if bobConn.frameCount() != 1 {
		t.Errorf("bob received %d frames, want 1", bobConn.frameCount())
	}
	if anonConn.frameCount() != 1 {
		t.Errorf("anonymous subscriber received %d frames, want 1", anonConn.frameCount())
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := New(Config{Logger: zap.NewNop()})
	defer hub.Close()

	stalled := newFakeConn()
	stalled.writeGate = make(chan struct{})
	defer close(stalled.writeGate)

	healthy := newFakeConn()
	hub.Subscribe(stalled, nil)
	hub.Subscribe(healthy, nil)

	// Overflow the stalled subscriber's buffer; every publish must return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBufferSize+16; i++ {
			hub.Publish(types.Event{Type: types.EventPriceChanged, MarketID: "m1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	waitForFrames(t, healthy, sendBufferSize+16)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := New(Config{Logger: zap.NewNop()})

	conn := newFakeConn()
	sub := hub.Subscribe(conn, nil)

	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("subscriber count = %d, want 0", got)
	}

	// Publishing to an empty hub is a no-op.
	hub.Publish(types.Event{Type: types.EventPriceChanged, MarketID: "m1"})
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	hub := New(Config{Logger: zap.NewNop()})

	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		hub.Subscribe(conn, nil)
	}

	hub.Close()

	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("subscriber count = %d, want 0", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for _, conn := range conns {
		for time.Now().Before(deadline) {
			conn.mu.Lock()
			closed := conn.closed
			conn.mu.Unlock()
			if closed {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
	for i, conn := range conns {
		conn.mu.Lock()
		closed := conn.closed
		conn.mu.Unlock()
		if !closed {
			t.Errorf("conn %d not closed after hub close", i)
		}
	}
}
