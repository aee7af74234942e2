// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"printer-service/internal/model"
)

const (
	clientTypeEvents = "events"
	clientTypeDevice = "device"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	Type        string          `json:"type"` // events, device
	DeviceID    *string         `json:"device_id,omitempty"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	mu            sync.Mutex
	subscriptions map[model.EventType]bool
}

// Subscribe limits the events the client receives; no subscription means all
func (c *Client) Subscribe(eventType model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.subscriptions[eventType] = true
}

// Unsubscribe removes a subscription
func (c *Client) Unsubscribe(eventType model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, eventType)
}

// Wants reports whether event should be sent to the client
func (c *Client) Wants(event model.DeviceEvent) bool {
	if c.DeviceID != nil && *c.DeviceID != event.DeviceID {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions) == 0 || c.subscriptions[event.EventType]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionManager tracks connected WebSocket clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*Client)}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Broadcast queues payload for every client interested in event and returns
// the ids of clients whose queue was full. Sending under the read lock keeps
// Unregister from closing a channel mid-send.
func (cm *ConnectionManager) Broadcast(event model.DeviceEvent, payload []byte) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var dropped []string
	for _, client := range cm.clients {
		if !client.Wants(event) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			dropped = append(dropped, client.ID)
		}
	}
	return dropped
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByType:           make(map[string]int),
	}
	for _, client := range cm.clients {
		stats.ByType[client.Type]++
	}
	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByType           map[string]int `json:"by_type"`
}
