package notifications

import (
	"log"
	"net/http"
	"sync"

	"aneti-backend/login"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub fans notifications out to the websocket connections of each member.
// One member may hold several connections (web + mobile).
type Hub struct {
	clients    map[int]map[*websocket.Conn]bool // userID -> set of conns
	push       chan pushMessage
	register   chan subscription
	unregister chan subscription
	mu         sync.Mutex
}

type subscription struct {
	Conn   *websocket.Conn
	UserID int
}

type pushMessage struct {
	UserID       int
	Notification *Notification
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*websocket.Conn]bool),
		push:       make(chan pushMessage),
		register:   make(chan subscription),
		unregister: make(chan subscription),
	}
}

// Run owns the client map; call it once in a goroutine from main.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.UserID] == nil {
				h.clients[sub.UserID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.UserID][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.UserID][sub.Conn]; ok {
				delete(h.clients[sub.UserID], sub.Conn)
				sub.Conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.push:
			h.mu.Lock()
			for conn := range h.clients[msg.UserID] {
				if err := conn.WriteJSON(msg.Notification); err != nil {
					log.Printf("[WS] write error: %v", err)
					conn.Close()
					delete(h.clients[msg.UserID], conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Push delivers to every connection of the member. Non-blocking persistence
// happens in Service before this is called.
func (h *Hub) Push(userID int, n *Notification) {
	h.push <- pushMessage{UserID: userID, Notification: n}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades GET /ws/notifications for the authenticated member.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	ident, ok := login.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token obrigatório"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}
	sub := subscription{Conn: conn, UserID: ident.UserID}
	h.register <- sub

	go h.keepAlive(sub)
}

// keepAlive drains client frames until the connection drops.
func (h *Hub) keepAlive(sub subscription) {
	defer func() { h.unregister <- sub }()
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
