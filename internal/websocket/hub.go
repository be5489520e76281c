package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries guide status frames between instances.
const ClusterChannel = "sceneguide:guide_status"

// Hub pushes guide lifecycle events to the owner's open connections.
// It is an events.Publisher so the workflow can fan out to it directly.
type Hub struct {
	// Registered clients map: OwnerID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, nil for single instance
	rdb *redis.Client

	// instance tags frames this process published so it skips its own echo
	instance string

	logger logger.ILogger
}

type clusterFrame struct {
	Origin      string          `json:"origin"`
	TargetOwner string          `json:"target_owner_id"`
	Message     json.RawMessage `json:"message"`
}

// Frame is what connected clients receive.
type Frame struct {
	Type       string                 `json:"type"`
	OccurredAt string                 `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

// Run serves register/unregister requests until ctx ends.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return nil
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Publish delivers the event to the owner named in its payload, locally and
// through Redis when configured. Events without an owner are ignored.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	ownerRaw, _ := event.Payload()["owner_id"].(string)
	ownerID, err := uuid.Parse(ownerRaw)
	if err != nil {
		return nil
	}

	data, err := json.Marshal(Frame{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp().Format("2006-01-02T15:04:05.000Z07:00"),
		Data:       event.Payload(),
	})
	if err != nil {
		return err
	}

	h.deliver(ownerID, data)

	if h.rdb != nil {
		payload, err := json.Marshal(clusterFrame{Origin: h.instance, TargetOwner: ownerID.String(), Message: data})
		if err != nil {
			return err
		}
		if err := h.rdb.Publish(ctx, ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("HUB", "Failed to publish to cluster channel", map[string]interface{}{"error": err.Error()})
			return err
		}
	}
	return nil
}

// join and leave hand a client to Run. Once Run has stopped they close or
// drop the client directly.
func (h *Hub) join(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports how many connections an owner has on this instance.
func (h *Hub) Connected(ownerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.OwnerID] = append(h.clients[client.OwnerID], client)
	h.mu.Unlock()
	h.logger.Info("HUB", "Client registered", map[string]interface{}{"owner_id": client.OwnerID.String()})
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.OwnerID]
	for i, c := range clients {
		if c == client {
			h.clients[client.OwnerID] = append(clients[:i], clients[i+1:]...)
			client.close()
			break
		}
	}
	if len(h.clients[client.OwnerID]) == 0 {
		delete(h.clients, client.OwnerID)
		h.logger.Info("HUB", "Client completely unregistered", map[string]interface{}{"owner_id": client.OwnerID.String()})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, clients := range h.clients {
		for _, c := range clients {
			c.close()
		}
		delete(h.clients, owner)
	}
}

// deliver sends to every local connection of the owner. A client whose
// buffer is full is dropped rather than blocking the publisher.
func (h *Hub) deliver(ownerID uuid.UUID, data []byte) {
	var stale []*Client

	h.mu.RLock()
	for _, client := range h.clients[ownerID] {
		select {
		case client.Send <- data:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.logger.Warn("HUB", "Client send buffer full, dropping connection", map[string]interface{}{"owner_id": ownerID.String()})
		h.remove(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame clusterFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				h.logger.Warn("HUB", "Cluster frame parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if frame.Origin == h.instance {
				continue
			}
			ownerID, err := uuid.Parse(frame.TargetOwner)
			if err != nil {
				continue
			}
			h.deliver(ownerID, frame.Message)
		}
	}
}
