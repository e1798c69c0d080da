package server

import (
	"context"
	"net/http"
	"time"

	"lounge-monitor/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			// Greet so the client knows the stream is live
			client.send <- models.MMonitorEvent{
				Type:      "CONNECTED",
				Timestamp: time.Now(),
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case event := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- event:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Event Sink Implementation
// -----------------------------------------------------------------------------

// Publish queues one event for broadcast. Never blocks: when the queue is
// full the event is dropped, dashboard clients are best effort.
func (s *APIServer) Publish(event models.MMonitorEvent) {
	select {
	case s.broadcast <- event:
	default:
		s.Logger.Warning("Event queue full, dropping %s", event.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MMonitorEvent, 256),
	}

	// The hub loop may already be gone during shutdown; a blocked send here
	// would leak the handler goroutine.
	select {
	case s.register <- client:
	case <-s.base.Done():
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
