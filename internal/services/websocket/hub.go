package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/pkg/database"
)

// Topics clients can subscribe to
const (
	TopicEmojis  = "emojis"
	TopicLeaders = "leaders"
)

// Event types
const (
	EventTypeReady               = "READY"
	EventTypeHeartbeatAck        = "HEARTBEAT_ACK"
	EventTypeEmojiCreate         = "EMOJI_CREATE"
	EventTypeEmojiUpdate         = "EMOJI_UPDATE"
	EventTypeEmojiCatalogReplace = "EMOJI_CATALOG_REPLACE"
	EventTypeEmojiCatalogClear   = "EMOJI_CATALOG_CLEAR"
	EventTypeLeaderCreate        = "LEADER_CREATE"
	EventTypeLeaderDelete        = "LEADER_DELETE"
)

var knownTopics = map[string]bool{
	TopicEmojis:  true,
	TopicLeaders: true,
}

// Client represents a WebSocket client connection
type Client struct {
	ID         uuid.UUID
	Username   string // empty for anonymous connections
	Conn       *websocket.Conn
	Send       chan []byte
	Hub        *Hub
	Subscribed map[string]bool
	mu         sync.RWMutex
}

// Hub fans events out to subscribed clients on this instance and, through
// Redis, on every other instance.
type Hub struct {
	clients    map[uuid.UUID]*Client
	topics     map[string]map[uuid.UUID]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	redis      *redis.Client
	instanceID uuid.UUID
	mu         sync.RWMutex
}

// BroadcastMessage represents a message to be broadcast
type BroadcastMessage struct {
	Topic string
	Event *Event
}

// Event represents a WebSocket event
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ClientMessage represents an incoming message from a client
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type redisEnvelope struct {
	Origin uuid.UUID `json:"origin"`
	Topic  string    `json:"topic"`
	Event  *Event    `json:"event"`
}

// NewHub creates a hub. redisClient may be nil to disable cross-instance delivery.
func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		topics:     make(map[string]map[uuid.UUID]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		redis:      redisClient,
		instanceID: uuid.New(),
	}
}

// Run serves the hub until ctx is cancelled. Run must be called at most once;
// after it returns, Register refuses clients and Publish only forwards to Redis.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.redis != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.broadcastToTopic(msg)
		}
	}
}

// Register adds a client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		h.unregisterClient(client)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	log.Info().
		Str("clientId", client.ID.String()).
		Str("username", client.Username).
		Msg("WebSocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)

	client.mu.RLock()
	for topic := range client.Subscribed {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, client.ID)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	client.mu.RUnlock()

	log.Info().
		Str("clientId", client.ID.String()).
		Msg("WebSocket client disconnected")
}

func (h *Hub) broadcastToTopic(msg *BroadcastMessage) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.topics[msg.Topic] {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Warn().
				Str("clientId", clientID.String()).
				Msg("Client send buffer full")
		}
	}
}

// Subscribe adds a client to a topic. Unknown topics are ignored.
func (h *Hub) Subscribe(client *Client, topic string) bool {
	if !knownTopics[topic] {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uuid.UUID]bool)
	}
	h.topics[topic][client.ID] = true

	client.mu.Lock()
	client.Subscribed[topic] = true
	client.mu.Unlock()

	log.Debug().
		Str("clientId", client.ID.String()).
		Str("topic", topic).
		Msg("Client subscribed to topic")
	return true
}

// Unsubscribe removes a client from a topic
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, client.ID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}

	client.mu.Lock()
	delete(client.Subscribed, topic)
	client.mu.Unlock()
}

// Publish delivers an event to local subscribers of topic and forwards it to
// other instances through Redis.
func (h *Hub) Publish(ctx context.Context, topic, eventType string, data any) {
	event := &Event{Type: eventType, Data: data}
	select {
	case h.broadcast <- &BroadcastMessage{Topic: topic, Event: event}:
	case <-h.done:
		log.Debug().Str("topic", topic).Str("type", eventType).Msg("Hub stopped, skipping local delivery")
	}
	h.publishToRedis(ctx, topic, event)
}

// ClientCount returns the number of connected clients on this instance
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of local subscribers of topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) publishToRedis(ctx context.Context, topic string, event *Event) {
	if h.redis == nil {
		return
	}

	payload, err := json.Marshal(redisEnvelope{Origin: h.instanceID, Topic: topic, Event: event})
	if err != nil {
		return
	}

	if err := database.Publish(ctx, h.redis, database.ChannelBroadcast, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish event to Redis")
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := database.Subscribe(ctx, h.redis, database.ChannelBroadcast)
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
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Event == nil {
				continue
			}
			// Our own events were already delivered by Publish
			if env.Origin == h.instanceID {
				continue
			}

			// Deliver locally only; republishing would loop between instances
			h.broadcastToTopic(&BroadcastMessage{Topic: env.Topic, Event: env.Event})
		}
	}
}
