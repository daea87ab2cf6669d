package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 64
)

// connection is one subscribed browser session
type connection struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub broadcasts availability and status events to WebSocket subscribers.
// Publishing is best-effort: a slow subscriber drops messages, and a full
// hub never blocks a ledger mutation.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*connection
}

// NewHub creates a new notification hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		connections: make(map[string]*connection),
	}
}

// RegisterRoutes registers the subscription endpoint
func (h *Hub) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/availability", h.subscribe)
}

// PublishAvailability implements inventory.EventPublisher
func (h *Hub) PublishAvailability(productID uuid.UUID, available int) {
	h.broadcast(Event{
		Type:      EventAvailability,
		ProductID: productID,
		Available: &available,
		Timestamp: time.Now(),
	})
}

// PublishStatus implements inventory.EventPublisher
func (h *Hub) PublishStatus(productID uuid.UUID, status inventory.Status) {
	h.broadcast(Event{
		Type:      EventStatus,
		ProductID: productID,
		Status:    string(status),
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections {
		select {
		case c.send <- event:
		default:
			// Drop rather than block; the page re-syncs on next fetch.
		}
	}
}

// subscribe handles GET /api/v1/ws/availability
func (h *Hub) subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := &connection{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Event, sendBufferSize),
	}

	h.mu.Lock()
	h.connections[sub.id] = sub
	h.mu.Unlock()

	go h.writePump(sub)
	go h.readPump(sub)
}

func (h *Hub) writePump(sub *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(sub *connection) {
	defer func() {
		h.mu.Lock()
		delete(h.connections, sub.id)
		h.mu.Unlock()
		close(sub.send)
		sub.conn.Close()
	}()

	// Subscribers never send application messages; the pump only services
	// control frames until the peer goes away.
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
