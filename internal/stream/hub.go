// Package stream broadcasts simulation progress to websocket subscribers.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"prop-simulator/internal/observability"
)

// ProgressEvent reports how many trials of a run have completed.
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Done      bool   `json:"done,omitempty"`
}

// HubConfig configures websocket behavior.
type HubConfig struct {
	// SendBuffer is the per-subscriber queue length; a full queue drops the subscriber.
	SendBuffer int
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// ReadTimeout is how long a subscriber may stay silent (pongs included).
	ReadTimeout time.Duration
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   64,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
}

// subscriber is one websocket connection. An empty runID receives every run.
type subscriber struct {
	conn  *websocket.Conn
	runID string
	send  chan []byte
	once  sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans progress events out to websocket subscribers.
// Subscribers may pass ?run_id=<id> to receive a single run.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *log.Logger
	metrics  *observability.Metrics

	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed atomic.Bool
}

// NewHub creates a new Hub. logger and metrics may be nil.
func NewHub(config *HubConfig, logger *log.Logger, metrics *observability.Metrics) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
		subs:    make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until the peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn:  conn,
		runID: r.URL.Query().Get("run_id"),
		send:  make(chan []byte, h.config.SendBuffer),
	}
	h.register(sub)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// Broadcast sends ev to every matching subscriber without blocking.
func (h *Hub) Broadcast(ev ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logf("encode progress event: %v", err)
		return
	}

	var slow []*subscriber

	h.mu.RLock()
	for sub := range h.subs {
		if sub.runID != "" && sub.runID != ev.RunID {
			continue
		}
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logf("dropping slow subscriber")
		h.unregister(sub)
	}
	if h.metrics != nil {
		h.metrics.ProgressEventsSent.Inc()
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		h.unregister(sub)
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
}

// readLoop discards client messages and detects disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.unregister(sub)

	_ = sub.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns all writes to the connection.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case data, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(sub)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(sub)
				return
			}
		}
	}
}

func (h *Hub) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
