// Package websocket pushes page state changes to the browser tabs of the
// session that owns the page.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejaspavanb/DeepFake/internal/logger"
)

const writeWait = 10 * time.Second

type subscription struct {
	conn      *websocket.Conn
	sessionID string
}

type message struct {
	sessionID string
	data      []byte
}

type HubService struct {
	clients    map[*websocket.Conn]string
	broadcast  chan message
	register   chan subscription
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan message, 64),
		register:   make(chan subscription),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and deliveries until ctx is done, then closes
// every connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case sub := <-h.register:
			h.mutex.Lock()
			h.clients[sub.conn] = sub.sessionID
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", total)

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client, sessionID := range h.clients {
				if sessionID != msg.sessionID {
					continue
				}
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register subscribes client to the events of sessionID.
func (h *HubService) Register(client *websocket.Conn, sessionID string) {
	select {
	case h.register <- subscription{conn: client, sessionID: sessionID}:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends v as JSON to every connection of sessionID.
func (h *HubService) Publish(sessionID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Error encoding event: %v", err)
		return
	}
	select {
	case h.broadcast <- message{sessionID: sessionID, data: data}:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
