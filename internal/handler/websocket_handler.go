// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler streams printer events to connected clients
type WebSocketHandler struct {
	upgrader       websocket.Upgrader
	connections    *ConnectionManager
	printerService *service.PrinterService
	eventBus       *EventBus
	logger         *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty
// allowedOrigins accepts every origin.
func NewWebSocketHandler(
	printerService *service.PrinterService,
	eventBus *EventBus,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		connections:    NewConnectionManager(),
		printerService: printerService,
		eventBus:       eventBus,
		logger:         utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
	router.GET("/printers/:device_id", h.HandleDeviceConnection)
}

// Run forwards bus events to clients until ctx is done or the bus stops
func (h *WebSocketHandler) Run(ctx context.Context) {
	events := h.eventBus.SubscribeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.BroadcastDeviceEvent(event)
		}
	}
}

// HandleEventConnection streams every printer event
// @Summary Printer event stream
// @Description Upgrade to a WebSocket receiving every device, config and print event
// @Tags Events
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	h.serve(c, clientTypeEvents, nil)
}

// HandleDeviceConnection streams the events of one printer
// @Summary Single printer event stream
// @Description Upgrade to a WebSocket receiving the events of one device, starting with its status
// @Tags Events
// @Param device_id path string true "Device ID"
// @Router /ws/printers/{device_id} [get]
func (h *WebSocketHandler) HandleDeviceConnection(c *gin.Context) {
	deviceID := c.Param("device_id")
	h.serve(c, clientTypeDevice, &deviceID)
}

func (h *WebSocketHandler) serve(c *gin.Context, clientType string, deviceID *string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Type:        clientType,
		DeviceID:    deviceID,
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("type", clientType),
		zap.String("remote_addr", client.RemoteAddr),
	)

	if deviceID != nil {
		h.sendStatus(client, *deviceID)
	}

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		return client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err), zap.String("client_id", client.ID))
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}
		h.handleClientMessage(client, &message)
	}
}

func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("WebSocket write error", zap.Error(err), zap.String("client_id", client.ID))
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles ping, subscribe, unsubscribe and status requests
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "ping":
		h.sendMessage(client, &WebSocketMessage{Type: "pong", Timestamp: time.Now()})

	case "subscribe", "unsubscribe":
		topic, ok := stringField(message.Data, "event_type")
		if !ok {
			h.sendError(client, "event_type is required")
			return
		}
		if message.Type == "subscribe" {
			client.Subscribe(model.EventType(topic))
		} else {
			client.Unsubscribe(model.EventType(topic))
		}
		h.sendMessage(client, &WebSocketMessage{
			Type:      message.Type + "d",
			Data:      map[string]interface{}{"event_type": topic},
			Timestamp: time.Now(),
		})

	case "status":
		deviceID, ok := stringField(message.Data, "device_id")
		if !ok && client.DeviceID != nil {
			deviceID, ok = *client.DeviceID, true
		}
		if !ok {
			h.sendError(client, "device_id is required")
			return
		}
		h.sendStatus(client, deviceID)

	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

func (h *WebSocketHandler) sendStatus(client *Client, deviceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h.sendMessage(client, &WebSocketMessage{
		Type: "device_status",
		Data: map[string]interface{}{
			"device_id": deviceID,
			"status":    h.printerService.Status(ctx, deviceID),
		},
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message", zap.String("client_id", client.ID))
	}
}

func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// BroadcastDeviceEvent sends event to every interested client
func (h *WebSocketHandler) BroadcastDeviceEvent(event model.DeviceEvent) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "device_event",
		Data:      event,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	for _, clientID := range h.connections.Broadcast(event, messageBytes) {
		h.logger.Warn("Client send channel full during broadcast", zap.String("client_id", clientID))
	}
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}

func stringField(data interface{}, key string) (string, bool) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok && s != ""
}
