// The Hub is the process-wide connection registry: it maps a user id to at
// most one live websocket client. A later registration for the same user
// wins; the superseded client's send channel is closed so its write pump
// exits, even if the underlying socket lingers until the peer notices.
package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"telescordAPI/internal/types/message"
	apperrors "telescordAPI/pkg/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	sendBuffer = 64
)

var (
	liveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_live_connections",
		Help: "Number of registered live websocket connections",
	})
	eventPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_event_pushes_total",
			Help: "Best-effort event pushes by outcome",
		},
		[]string{"outcome"},
	)
)

// InitChatMetrics registers the hub metrics. Call this from main.go
func InitChatMetrics() {
	prometheus.MustRegister(liveConnections)
	prometheus.MustRegister(eventPushes)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register binds userID to the given client, evicting any earlier handle
// (last-register-wins).
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[c.UserID]; ok && old != c {
		old.closeSend()
		log.Printf("[Hub] User %s reconnected, evicting stale handle", old.UserID)
	}
	h.clients[c.UserID] = c
	liveConnections.Set(float64(len(h.clients)))
	log.Printf("[Hub] User %s connected. Count: %d", c.UserID, len(h.clients))
}

// Unregister removes the mapping only while it still points at c, so a
// stale disconnect cannot evict a newer registration.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.UserID] == c {
		delete(h.clients, c.UserID)
		c.closeSend()
		liveConnections.Set(float64(len(h.clients)))
		log.Printf("[Hub] User %s disconnected. Count: %d", c.UserID, len(h.clients))
	}
}

// Lookup returns the current handle for userID, if any.
func (h *Hub) Lookup(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

func (h *Hub) Online(userID string) bool {
	_, ok := h.Lookup(userID)
	return ok
}

// Push delivers an event to userID's live connection if present. The send
// is non-blocking: a full buffer (stalled peer) counts as a miss, never as
// something that can block the caller.
func (h *Hub) Push(userID string, event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Hub] Failed to marshal event for %s: %v", userID, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[userID]
	if !ok {
		eventPushes.WithLabelValues("offline").Inc()
		return false
	}

	if c.trySend(data) {
		eventPushes.WithLabelValues("delivered").Inc()
		return true
	}
	eventPushes.WithLabelValues("stalled").Inc()
	return false
}

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	UserID   string
	Username string

	// Guards Send against a send racing the hub closing the channel on
	// eviction. Every write to Send goes through trySend.
	sendMu sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		UserID:   userID,
		Username: username,
	}
}

// trySend queues data for the write pump without blocking. A closed client
// or a full buffer is a miss.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and closes Send so its write pump
// exits. Idempotent; the sendMu handoff makes the close observable to any
// concurrent trySend.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// WsPayload is an inbound frame from the frontend.
type WsPayload struct {
	Action     string `json:"action"`
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
	IsMedia    bool   `json:"isMedia"`
	MediaType  string `json:"mediaType"`
	MediaRef   string `json:"mediaRef"`
}

// ReadPump handles messages coming FROM the frontend and feeds them to the
// delivery router. One goroutine per connection.
func (c *Client) ReadPump(router *DeliveryRouter) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Client %s] Read error: %v", c.UserID, err)
			}
			break
		}

		var payload WsPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.sendError(apperrors.InvalidArg("malformed frame"))
			continue
		}

		switch payload.Action {
		case "dm_message":
			req := &message.SendMessageRequest{
				ReceiverID: payload.ReceiverID,
				Body:       payload.Body,
				IsMedia:    payload.IsMedia,
				MediaType:  payload.MediaType,
				MediaRef:   payload.MediaRef,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_, err := router.SendDirectMessage(ctx, c.UserID, req)
			cancel()
			if err != nil {
				c.sendError(err)
			}

		default:
			c.sendError(apperrors.InvalidArg("unknown action: " + payload.Action))
		}
	}
}

// sendError reports a failed operation back on the submitting socket only.
func (c *Client) sendError(err error) {
	event := map[string]any{
		"type":    "error",
		"code":    apperrors.CodeOf(err),
		"message": err.Error(),
	}
	data, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		return
	}
	c.trySend(data)
}

// WritePump handles messages going TO the frontend. One goroutine per
// connection; the only writer to the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel (disconnect or eviction).
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			// Heartbeat: keep connection alive
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
