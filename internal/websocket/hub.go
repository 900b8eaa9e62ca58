package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// decisionChannel is the redis channel carrying decisions between instances.
const decisionChannel = "decision_stream"

// Hub fans finished routing decisions out to every connected admin console.
// The stream is broadcast only: every watcher sees every decision.
type Hub struct {
	// Registered clients map: OperatorID -> List of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	// Set on outgoing redis payloads so an instance can skip its own echo.
	instanceId string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instanceId string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceId: instanceId,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OperatorID] = append(h.clients[client.OperatorID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Decision stream client registered", map[string]interface{}{"operator_id": client.OperatorID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.OperatorID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.OperatorID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.OperatorID]) == 0 {
					delete(h.clients, client.OperatorID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastDecision sends one finished decision to all connected consoles,
// local and on peer instances.
func (h *Hub) BroadcastDecision(res *dto.RouteResponse) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "decision",
		"data": res,
	})
	if err != nil {
		return
	}

	h.deliverLocal(data)

	// Peers pick it up over redis; the instance id lets them and us tell
	// an echo from a foreign decision.
	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"instance_id": h.instanceId,
			"message":     json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), decisionChannel, payload)
	}
}

func (h *Hub) deliverLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Slow consumer: drop the connection, not the stream.
				// Run owns the close; sending from here under RLock
				// would deadlock against its Lock.
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, decisionChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			InstanceID string          `json:"instance_id"`
			Message    json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		// Local clients already got this one when we published it.
		if payload.InstanceID == h.instanceId {
			continue
		}

		h.deliverLocal(payload.Message)
	}
}
