package realtime

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Event names on the realtime channel.
const (
	EventRegister        = "register"
	EventRegisterConfirm = "register_confirm"
	EventNotification    = "notification"
)

// Envelope frames every message on the realtime channel.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// clientMessage is the inbound counterpart of Envelope; Data stays raw until
// the event type is known.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub bridges websocket connections into the presence registry.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHub creates a Hub serving the given registry and dispatcher.
func NewHub(registry *Registry, dispatcher *Dispatcher, logger *zap.Logger) *Hub {
	return &Hub{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced at the gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection until it closes. A
// connection may stay unregistered for its whole lifetime; on close it is
// unregistered unconditionally.
func (h *Hub) ServeWS(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	conn := newConn(ws, h.logger)
	go conn.writer()
	defer func() {
		h.registry.Unregister(conn)
		conn.Close()
	}()

	h.logger.Debug("websocket connected", zap.String("session_id", conn.ID()))

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error",
					zap.String("session_id", conn.ID()), zap.Error(err))
			}
			return nil
		}

		switch msg.Event {
		case EventRegister:
			h.handleRegister(conn, msg.Data)
		default:
			h.logger.Debug("ignoring unknown realtime event",
				zap.String("event", msg.Event), zap.String("session_id", conn.ID()))
		}
	}
}

// handleRegister binds the connection to the user ID carried by the message.
// A malformed or empty user ID is logged and ignored; the connection stays
// open and may retry. Registering again overwrites the previous binding.
func (h *Hub) handleRegister(conn *Conn, data json.RawMessage) {
	userID, ok := coerceUserID(data)
	if !ok {
		h.logger.Warn("register message with empty or malformed user id",
			zap.String("session_id", conn.ID()))
		return
	}

	h.registry.Register(userID, conn)

	if err := conn.Send(Envelope{Event: EventRegisterConfirm, Data: userID}); err != nil {
		h.logger.Warn("failed to confirm registration",
			zap.String("user_id", userID), zap.Error(err))
	}

	// Replay anything that was dispatched while this user was between connections.
	h.dispatcher.FlushPending(userID)

	h.logger.Info("user registered on realtime channel",
		zap.String("user_id", userID), zap.String("session_id", conn.ID()))
}

// coerceUserID accepts a JSON string or number and returns it as a stable
// string key. Clients are inconsistent about quoting numeric IDs; a lookup
// under a mismatched type would silently miss, so every key becomes a string.
func coerceUserID(data json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil && n.String() != "" {
		return n.String(), true
	}
	return "", false
}
