package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Droze-svj/click-platform-sub013/infrastructure/valkey"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

type BroadcastMessage struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Result   any    `json:"result"`
	SenderID string `json:"sender_id,omitempty"`
}

// StatsFunc returns the payload answered to FETCH_SWEEP_STATS.
type StatsFunc func() any

// Hub pushes scheduling events to connected browsers. With a valkey client
// it also relays them to the hubs of the other instances.
type Hub struct {
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan BroadcastMessage

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	vkClient *valkey.Client
	channel  string
	localID  string
	stats    StatsFunc
}

func NewHub(client *valkey.Client, serverID string, stats StatsFunc) *Hub {
	h := &Hub{
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan BroadcastMessage, 64),
		clients:    map[*websocket.Conn]struct{}{},
		vkClient:   client,
		localID:    serverID,
		stats:      stats,
	}
	if client != nil {
		h.channel = client.Key("ws_broadcast")
	}
	return h
}

func (h *Hub) Name() string { return "websocket" }

// Deliver turns a scheduling event into a broadcast frame.
func (h *Hub) Deliver(ctx context.Context, evt domain.Event) error {
	msg := BroadcastMessage{
		Code:    string(evt.Type),
		Message: evt.Message,
		Result:  evt,
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients is the number of local connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToLocal(message BroadcastMessage) {
	marshalMessage, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, marshalMessage); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) publishToValkey(ctx context.Context, message BroadcastMessage) {
	message.SenderID = h.localID
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	inner := h.vkClient.Inner()
	cmd := inner.B().Publish().Channel(h.channel).Message(string(data)).Build()
	if err := inner.Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func (h *Hub) startValkeySubscriber(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		inner := h.vkClient.Inner()
		err := inner.Receive(ctx, inner.B().Subscribe().Channel(h.channel).Build(), func(msg valkeylib.PubSubMessage) {
			var broadcastMsg BroadcastMessage
			if err := json.Unmarshal([]byte(msg.Message), &broadcastMsg); err == nil {
				// Our own frames were already written locally.
				if broadcastMsg.SenderID == h.localID {
					return
				}
				h.broadcastToLocal(broadcastMsg)
			}
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

// Run serves the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.vkClient != nil {
		h.startValkeySubscriber(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = struct{}{}
			h.mu.Unlock()
			logrus.Debug("[WS] Connection registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			logrus.Debug("[WS] Connection unregistered")

		case message := <-h.broadcast:
			h.broadcastToLocal(message)
			if h.vkClient != nil {
				h.publishToValkey(ctx, message)
			}
		}
	}
}

func RegisterRoutes(app fiber.Router, hub *Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		defer func() {
			hub.unregister <- conn
			_ = conn.Close()
		}()

		hub.register <- conn

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] read error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] unsupported message type: %d", messageType)
				continue
			}

			var messageData BroadcastMessage
			if err := json.Unmarshal(message, &messageData); err != nil {
				logrus.Debugf("[WS] unmarshal error: %v", err)
				return
			}

			if messageData.Code == "FETCH_SWEEP_STATS" && hub.stats != nil {
				hub.broadcast <- BroadcastMessage{
					Code:    "SWEEP_STATS",
					Message: "Sweep statistics",
					Result:  hub.stats(),
				}
			}
		}
	}))
}
