// Package websocket pushes domain events to connected dashboards so open tabs
// refresh bookings and blocked slots instead of drifting stale.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// TokenParser resolves the access token a dashboard connects with.
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*domain.Principal, error)
}

// Client is one connected dashboard tab.
type Client struct {
	Principal domain.Principal
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *EventHub
}

// receives reports whether the client may see events of businessID.
func (c *Client) receives(e events.Event) bool {
	if c.Principal.Role == domain.RoleAdmin {
		return true
	}
	return e.BusinessID != 0 && c.Principal.BusinessID == e.BusinessID
}

// EventHub fans bus events out to the websocket clients of the business they
// concern. Admins receive everything.
type EventHub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event
	done       chan struct{}

	auth   TokenParser
	logger *zap.Logger
	mutex  sync.RWMutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func NewEventHub(auth TokenParser, logger *zap.Logger) *EventHub {
	return &EventHub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		done:       make(chan struct{}),
		auth:       auth,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every
// client.
func (h *EventHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			h.mutex.Unlock()
			h.logger.Info("Dashboard connected",
				zap.String("role", string(client.Principal.Role)),
				zap.Int64("business_id", client.Principal.BusinessID))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.logger.Info("Dashboard disconnected", zap.Int64("business_id", client.Principal.BusinessID))

		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

// Handle is the bus subscription. It never blocks the publisher: when the hub
// is backed up the event is dropped and logged.
func (h *EventHub) Handle(_ context.Context, e events.Event) {
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warn("Event hub is full, dropping event", zap.String("kind", string(e.Kind)))
	}
}

func (h *EventHub) deliver(e events.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("kind", string(e.Kind)), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if !client.receives(e) {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("Dashboard is not reading, skipping event",
				zap.Int64("business_id", client.Principal.BusinessID),
				zap.String("kind", string(e.Kind)))
		}
	}
}

// ClientCount is the number of connected dashboards.
func (h *EventHub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades GET /ws/events?token=<access token>.
func (h *EventHub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "token query parameter is required", "code": http.StatusUnauthorized})
		return
	}

	principal, err := h.auth.ParseToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Rejected websocket connection", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token", "code": http.StatusUnauthorized})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		Principal: *principal,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		Hub:       h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only keeps the connection alive; dashboards do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Warn("Failed to write event to WebSocket",
					zap.Int64("business_id", c.Principal.BusinessID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
