package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status streams carry no secrets and the API is CORS-open
	},
}

// Client is one websocket watching a single booking.
type Client struct {
	BookingID string
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
}

type bookingMessage struct {
	bookingID string
	data      []byte
}

// Hub tracks websocket clients per booking and delivers status updates to them.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan bookingMessage
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan bookingMessage, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns client registration until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			set, ok := h.clients[client.BookingID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.BookingID] = set
			}
			set[client] = true
			h.mutex.Unlock()
			h.log.WithField("bookingId", client.BookingID).Debug("status stream connected")

		case client := <-h.unregister:
			h.remove(client)
			h.log.WithField("bookingId", client.BookingID).Debug("status stream disconnected")

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.clients[client.BookingID]
	if !ok {
		return
	}
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.Send)
	}
	if len(set) == 0 {
		delete(h.clients, client.BookingID)
	}
}

func (h *Hub) deliver(msg bookingMessage) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set := h.clients[msg.bookingID]
	for client := range set {
		select {
		case client.Send <- msg.data:
		default:
			// slow consumer; drop it rather than block every other booking
			close(client.Send)
			delete(set, client)
		}
	}
	if len(set) == 0 {
		delete(h.clients, msg.bookingID)
	}
}

// Watchers returns the number of clients connected for a booking.
func (h *Hub) Watchers(bookingID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[bookingID])
}

// WebSocketMessage is the envelope written to status streams.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func encodeStatus(update StatusUpdate) ([]byte, error) {
	return json.Marshal(WebSocketMessage{Type: "booking_status", Data: update})
}

// Publish implements StatusPublisher for in-process delivery.
func (h *Hub) Publish(ctx context.Context, update StatusUpdate) {
	data, err := encodeStatus(update)
	if err != nil {
		h.log.WithError(err).Error("failed to encode status update")
		return
	}
	select {
	case h.broadcast <- bookingMessage{bookingID: update.BookingID, data: data}:
	case <-h.done:
	case <-ctx.Done():
	}
}

// HandleWebSocket upgrades the request and streams status updates for bookingID.
// The current status is sent first so a late subscriber never misses the outcome.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, current StatusUpdate) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		BookingID: current.BookingID,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		Hub:       hub,
	}
	if data, err := encodeStatus(current); err == nil {
		client.Send <- data
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).WithField("bookingId", c.BookingID).Debug("websocket read error")
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
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.WithError(err).WithField("bookingId", c.BookingID).Debug("websocket write error")
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
