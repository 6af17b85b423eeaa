package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/services"
)

const writeWait = 10 * time.Second

// pongWait is how long a viewer may stay silent before it is dropped. Pings
// go out at nine tenths of it.
var pongWait = 60 * time.Second

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsWebsocketHandler streams state and progress events of the caller's
// pages until the browser disconnects.
func EventsWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub := manager.WebsocketService()
		if hub == nil {
			http.Error(w, "Live updates disabled", http.StatusNotFound)
			return
		}
		sessionID := middleware.SessionID(r)

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		wait := pongWait
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(wait))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(wait))
			return nil
		})

		hub.Register(connection, sessionID)
		defer hub.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go keepAlive(connection, wait*9/10, done)

		logger.Info("👀 Viewer connected")

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				logger.Info("👋 Viewer disconnected: %v", err)
				break
			}
		}
	}
}

// keepAlive pings conn every period until done is closed or a ping fails.
func keepAlive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
