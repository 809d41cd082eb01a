package devtools

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// StreamEventType identifies the kind of inspector stream message.
type StreamEventType string

const (
	StreamNodeCreated  StreamEventType = "node_created"
	StreamNodeDisposed StreamEventType = "node_disposed"
	StreamWrite        StreamEventType = "write"
	StreamRecompute    StreamEventType = "recompute"
	StreamPropagation  StreamEventType = "propagation"
	StreamFetchStarted StreamEventType = "fetch_started"
	StreamFetchSettled StreamEventType = "fetch_settled"
	StreamBudget       StreamEventType = "budget"
)

// StreamEvent is sent to inspector clients via WebSocket. Only the fields
// relevant to the event type are populated.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Time time.Time       `json:"time"`

	// Node lifecycle events carry the full snapshot.
	Node *reactive.NodeInfo `json:"node,omitempty"`

	NodeID     uint64  `json:"nodeId,omitempty"`
	Name       string  `json:"name,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Changed    bool    `json:"changed,omitempty"`
	DurationMS float64 `json:"durationMs,omitempty"`
	Error      string  `json:"error,omitempty"`
	Marked     int     `json:"marked,omitempty"`
	EagerRuns  int     `json:"eagerRuns,omitempty"`
	Generation uint64  `json:"generation,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Max        int     `json:"max,omitempty"`
	WindowMS   float64 `json:"windowMs,omitempty"`
}

const (
	clientSendBuffer = 256
	writeTimeout     = 10 * time.Second
)

// client is one connected inspector with a bounded outbound queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub manages WebSocket connections for the live event stream. It implements
// reactive.Observer: attach it to a runtime and every graph event is
// broadcast to connected clients as a StreamEvent JSON frame.
//
// Observer callbacks run on the runtime's hot path, so the hub never blocks
// there: each client has a bounded queue and events are dropped, not queued
// unboundedly, when a client cannot keep up.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader

	connected atomic.Int64
	dropped   atomic.Uint64
}

// NewHub creates a hub with no connected clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Inspector is a dev tool; allow all origins
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and streams events until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.connected.Add(1)

	go h.writeLoop(c)

	// Discard inbound messages until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// writeLoop drains the client's queue onto the connection.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		h.connected.Add(-1)
	}
	c.close()
}

// Broadcast sends an event to all connected clients. Clients whose queue is
// full miss the event; Dropped counts those misses.
func (h *Hub) Broadcast(ev StreamEvent) {
	if h.connected.Load() == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Dropped returns the number of events dropped on full client queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		h.connected.Add(-1)
	}
}

// =============================================================================
// Observer implementation
// =============================================================================

// NodeCreated implements reactive.Observer.
func (h *Hub) NodeCreated(info reactive.NodeInfo) {
	h.Broadcast(StreamEvent{Type: StreamNodeCreated, Time: time.Now(), Node: &info})
}

// NodeDisposed implements reactive.Observer.
func (h *Hub) NodeDisposed(info reactive.NodeInfo) {
	h.Broadcast(StreamEvent{Type: StreamNodeDisposed, Time: time.Now(), Node: &info})
}

// WriteApplied implements reactive.Observer.
func (h *Hub) WriteApplied(ev reactive.WriteEvent) {
	h.Broadcast(StreamEvent{
		Type:    StreamWrite,
		Time:    ev.Time,
		NodeID:  ev.NodeID,
		Name:    ev.Name,
		Changed: ev.Changed,
	})
}

// Recomputed implements reactive.Observer.
func (h *Hub) Recomputed(ev reactive.RecomputeEvent) {
	h.Broadcast(StreamEvent{
		Type:       StreamRecompute,
		Time:       ev.Start,
		NodeID:     ev.NodeID,
		Name:       ev.Name,
		Kind:       ev.Kind.String(),
		DurationMS: durationMS(ev.Duration),
		Error:      errString(ev.Err),
	})
}

// PropagationEnded implements reactive.Observer.
func (h *Hub) PropagationEnded(ev reactive.PropagationEvent) {
	h.Broadcast(StreamEvent{
		Type:       StreamPropagation,
		Time:       ev.Start,
		NodeID:     ev.OriginID,
		Name:       ev.OriginName,
		Marked:     ev.Marked,
		EagerRuns:  ev.EagerRuns,
		DurationMS: durationMS(ev.Duration),
	})
}

// TaskFetchStarted implements reactive.Observer.
func (h *Hub) TaskFetchStarted(ev reactive.TaskFetchEvent) {
	h.Broadcast(StreamEvent{
		Type:       StreamFetchStarted,
		Time:       ev.Start,
		NodeID:     ev.NodeID,
		Name:       ev.Name,
		Generation: ev.Generation,
	})
}

// TaskFetchSettled implements reactive.Observer.
func (h *Hub) TaskFetchSettled(ev reactive.TaskFetchEvent) {
	h.Broadcast(StreamEvent{
		Type:       StreamFetchSettled,
		Time:       ev.Start,
		NodeID:     ev.NodeID,
		Name:       ev.Name,
		Generation: ev.Generation,
		Outcome:    ev.Outcome.String(),
		DurationMS: durationMS(ev.Duration),
		Error:      errString(ev.Err),
	})
}

// BudgetExceeded implements reactive.Observer.
func (h *Hub) BudgetExceeded(ev reactive.BudgetEvent) {
	h.Broadcast(StreamEvent{
		Type:     StreamBudget,
		Time:     ev.Time,
		NodeID:   ev.NodeID,
		Name:     ev.Name,
		Kind:     ev.Kind.String(),
		Max:      ev.Max,
		WindowMS: durationMS(ev.Window),
	})
}

var _ reactive.Observer = (*Hub)(nil)

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
