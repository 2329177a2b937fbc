// Package ws implements the live websocket gateway: authenticated clients
// join a shared room, see the connected-clients roster, and exchange chat
// messages relayed through the server.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Navau/teslo-shop-nest/internal/registry"
	"github.com/Navau/teslo-shop-nest/pkg/middleware"
)

// Event names on the wire.
const (
	EventClientsUpdated    = "clients-updated"
	EventMessageFromClient = "message-from-client"
	EventMessageFromServer = "message-from-server"
)

// defaultMessage replaces an empty chat message, mirroring what clients expect.
const defaultMessage = "No message!!"

// Envelope is the wire format for every websocket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatMessage is the payload of a message-from-client event.
type ChatMessage struct {
	Message string `json:"message"`
}

// ServerMessage is the payload of a message-from-server event.
type ServerMessage struct {
	FullName string `json:"fullName"`
	Message  string `json:"message"`
}

// Gateway upgrades HTTP requests to websocket connections, authenticates
// them, and wires them into the connection registry.
type Gateway struct {
	upgrader websocket.Upgrader
	registry *registry.Registry
	verify   middleware.TokenVerifier
	logger   *slog.Logger
}

// NewGateway creates a websocket gateway over the given registry. The
// verifier is the same one the HTTP auth middleware uses.
func NewGateway(reg *registry.Registry, verify middleware.TokenVerifier, logger *slog.Logger) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client sends no Origin restrictions we can rely
			// on; cross-origin access is governed by the token check below.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry: reg,
		verify:   verify,
		logger:   logger,
	}
}

// ServeHTTP handles GET /ws. The token travels in the Authentication header,
// or in a token query parameter for clients that cannot set custom headers.
// Connections with a bad token complete the upgrade and are then closed
// without any application payload.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	token := r.Header.Get("Authentication")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	principal, err := g.verify(r.Context(), token)
	if err != nil {
		_ = conn.Close()
		return
	}

	connID := uuid.New().String()
	client := newClient(connID, conn, g.logger)
	client.onMessage = g.handleMessage
	client.onClose = g.handleDisconnect

	if err := g.registry.Register(connID, principal.ID, principal.FullName, client); err != nil {
		g.logger.Error("failed to register websocket connection",
			slog.String("conn_id", connID),
			slog.String("error", err.Error()),
		)
		_ = conn.Close()
		return
	}

	g.logger.Info("websocket client connected",
		slog.String("conn_id", connID),
		slog.String("user_id", principal.ID),
		slog.Int("connected", g.registry.Count()),
	)

	go client.writePump()
	go client.readPump()

	g.broadcastRoster()
}

// handleMessage processes one inbound frame from a connected client.
func (g *Gateway) handleMessage(connID string, payload []byte) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		g.logger.Debug("discarding malformed websocket frame",
			slog.String("conn_id", connID),
		)
		return
	}

	switch envelope.Event {
	case EventMessageFromClient:
		var chat ChatMessage
		if len(envelope.Data) > 0 {
			_ = json.Unmarshal(envelope.Data, &chat)
		}
		g.relayChatMessage(connID, chat.Message)
	default:
		g.logger.Debug("ignoring unknown websocket event",
			slog.String("conn_id", connID),
			slog.String("event", envelope.Event),
		)
	}
}

// relayChatMessage broadcasts a chat message to every connected client,
// including the sender.
func (g *Gateway) relayChatMessage(connID, message string) {
	if message == "" {
		message = defaultMessage
	}

	fullName, err := g.registry.FullName(connID)
	if err != nil {
		// The sender disconnected between the read and the relay.
		fullName = "Anonymous"
	}

	g.broadcast(EventMessageFromServer, ServerMessage{
		FullName: fullName,
		Message:  message,
	})
}

// handleDisconnect removes the connection and pushes a fresh roster to the
// remaining clients. Safe to call more than once per connection.
func (g *Gateway) handleDisconnect(connID string) {
	g.registry.Unregister(connID)

	g.logger.Info("websocket client disconnected",
		slog.String("conn_id", connID),
		slog.Int("connected", g.registry.Count()),
	)

	g.broadcastRoster()
}

func (g *Gateway) broadcastRoster() {
	g.broadcast(EventClientsUpdated, g.registry.Roster())
}

func (g *Gateway) broadcast(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal websocket event",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		g.logger.Error("failed to marshal websocket envelope",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	g.registry.Broadcast(frame)
}
