package server

import (
	"encoding/json"
	"net/http"

	"netsim-results/src/analysis"
	"netsim-results/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *ResultsServer) handleWebsockets() {
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
			// Send current state on connect
			client.send <- filterState(s.latestState, nil)
			s.stateMutex.Unlock()

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- filterState(message, client.Protocols()):
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

// UpdateSummary replaces the served summary without notifying clients.
func (s *ResultsServer) UpdateSummary(summary *models.MSummaryTable, metrics models.MProcessingMetrics) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	s.latestSummary = summary
	s.latestState = &models.MLatestData{
		Type:              "UPDATE",
		Summary:           analysis.BuildSummaryView(summary),
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: metrics,
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a message for every client. When the queue is full the
// message is dropped; clients still get the state on their next request.
func (s *ResultsServer) Broadcast(message models.MLatestData) {
	s.stateMutex.Lock()
	if message.Timestamp != 0 {
		s.latestState.Timestamp = message.Timestamp
	}
	s.stateMutex.Unlock()

	select {
	case s.broadcast <- &message:
	case <-s.done:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update")
	}
}

// -----------------------------------------------------------------------------

// LatestSummary returns the summary of the last processed run, or nil.
func (s *ResultsServer) LatestSummary() *models.MSummaryTable {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.latestSummary
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

func (s *ResultsServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MLatestData, 256),
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

// HandleClientMessage applies a subscribe command and answers with the
// current state restricted to the requested protocols.
func (s *ResultsServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}
	client.SetProtocols(cmd.Protocols)

	// The hub closes client.send only under the write lock.
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	response := filterState(s.latestState, cmd.Protocols)
	response.Type = "INITIAL"

	// Use select to avoid blocking if client's send buffer is full
	select {
	case client.send <- response:
	default:
	}
}
