package server

import (
	"encoding/json"
	"net/http"

	"holiday-pipeline/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It owns the clients map.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			replay := append([]models.MCollectionEvent(nil), s.recent...)
			s.stateMutex.Unlock()
			client.deliver(replay)

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case event := <-s.broadcast:
			s.stateMutex.Lock()
			s.recent = append(s.recent, event)
			if len(s.recent) > recentEvents {
				s.recent = s.recent[len(s.recent)-recentEvents:]
			}
			for client := range s.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- event:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues event for the hub. When the queue is full the event is
// dropped so collection never blocks on listeners.
func (s *APIServer) Broadcast(event models.MCollectionEvent) {
	select {
	case <-s.done:
	case s.broadcast <- event:
	default:
		s.Logger.Debug("Broadcast queue full, dropping %s event for %s/%d", event.Type, event.CountryCode, event.Year)
	}
}

// -----------------------------------------------------------------------------

// RecentEvents returns a copy of the replay buffer, oldest first.
func (s *APIServer) RecentEvents() []models.MCollectionEvent {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return append([]models.MCollectionEvent(nil), s.recent...)
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
		send: make(chan models.MCollectionEvent, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command: only events for the listed
// countries are delivered afterwards, starting with a filtered replay. An
// empty list subscribes to everything.
func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.setFilter(cmd.Countries)

	// Under the read lock the hub cannot close client.send concurrently.
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	client.deliver(s.recent)
}
