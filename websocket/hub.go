package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Define notification types
const (
	NotificationTypeSalaryRequestCreated   = "salary_request_created"
	NotificationTypeSalaryRequestProcessed = "salary_request_processed"
	NotificationTypeDepositProcessed       = "deposit_processed"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID  primitive.ObjectID
	IsAdmin bool
	Conn    *websocket.Conn
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	admins     map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		admins:     make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			if client.IsAdmin {
				h.admins[client.UserID] = client
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			delete(h.admins, client.UserID)
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(notification)
}

// BroadcastToAdmins sends a message to every connected admin
func (h *Hub) BroadcastToAdmins(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.admins {
		client.Conn.WriteJSON(notification)
	}
}
