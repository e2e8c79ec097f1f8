package webui

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pano_backend/logging"
)

// ProgressEvent is the JSON message pushed to connected browsers as a
// generation request moves through its stages.
type ProgressEvent struct {
	CorrelationID string    `json:"correlation_id"`
	Stage         string    `json:"stage"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// Broadcaster fans generation progress events out to all connected
// WebSocket clients. Slow clients are dropped rather than allowed to stall
// the pipeline.
type Broadcaster struct {
	upgrader websocket.Upgrader
	logger   *logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan ProgressEvent
}

// NewBroadcaster creates a Broadcaster ready to accept connections.
func NewBroadcaster(logger *logging.Logger) *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Single-host demo UI; the page and the socket share an origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.Named("ws"),
		clients: make(map[*websocket.Conn]chan ProgressEvent),
	}
}

// HandleWS upgrades the request and streams progress events until the
// client disconnects.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	events := make(chan ProgressEvent, 16)
	b.mu.Lock()
	b.clients[conn] = events
	count := len(b.clients)
	b.mu.Unlock()
	b.logger.Debug("websocket client connected", zap.Int("clients", count))

	// Writer: push events until the channel closes
	go func() {
		for event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				b.remove(conn)
				return
			}
		}
	}()

	// Reader: detect disconnect; inbound messages are ignored
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			b.remove(conn)
			return
		}
	}
}

// NotifyProgress queues an event for every connected client. Clients whose
// buffers are full miss the event instead of blocking the caller.
func (b *Broadcaster) NotifyProgress(correlationID, stage, message string) {
	event := ProgressEvent{
		CorrelationID: correlationID,
		Stage:         stage,
		Message:       message,
		Timestamp:     time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, events := range b.clients {
		select {
		case events <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects all clients.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, events := range b.clients {
		close(events)
		conn.Close()
		delete(b.clients, conn)
	}
}

// remove drops a client and closes its event channel.
func (b *Broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if events, ok := b.clients[conn]; ok {
		close(events)
		delete(b.clients, conn)
	}
	conn.Close()
}
