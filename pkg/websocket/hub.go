package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Event is the standard message format pushed to room clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins. Adjust this in production!
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans room-scoped events out to connected clients. Services push
// events in; the hub never calls back into services.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	accessCode string
	done       chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, accessCode string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		accessCode: accessCode,
		done:       make(chan struct{}),
	}
}

// Broadcast marshals the event and queues it for every client in the room.
func (h *Hub) Broadcast(accessCode string, eventType string, data interface{}) {
	msg := Event{
		Type: eventType,
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[accessCode]))
	for client := range h.rooms[accessCode] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		func(c *Client) {
			// The unregister branch in Run may close c.send between the
			// snapshot above and this send.
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic while sending to client %p: %v", c, r)
				}
			}()

			select {
			case c.send <- payload:
			default:
				// Slow consumer, drop the connection.
				h.unregister <- c
			}
		}(client)
	}
}

// Run listens on the register and unregister channels and updates the
// hub state accordingly.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, exists := h.rooms[client.accessCode]; !exists {
				h.rooms[client.accessCode] = make(map[*Client]bool)
			}
			h.rooms[client.accessCode][client] = true
			count := len(h.rooms[client.accessCode])
			h.mu.Unlock()

			log.Printf("Client joined room %s. Connected: %d", client.accessCode, count)
			go h.Broadcast(client.accessCode, "viewer_update", map[string]interface{}{
				"count": count,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			room, exists := h.rooms[client.accessCode]
			if !exists {
				h.mu.Unlock()
				continue
			}
			if _, ok := room[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.accessCode)
			}
			count := len(room)
			close(client.send)
			close(client.done)
			h.mu.Unlock()

			log.Printf("Client left room %s. Remaining: %d", client.accessCode, count)
			go h.Broadcast(client.accessCode, "viewer_update", map[string]interface{}{
				"count": count,
			})
		}
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the client
// with the room named in the path.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accessCode := vars["accessCode"]
	if accessCode == "" {
		http.Error(w, "Missing access code", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := NewClient(h, conn, accessCode)
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection to keep ping/pong alive; incoming
// payloads are not commands, all state changes go through HTTP.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing to client: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
