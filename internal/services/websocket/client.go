package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

func NewClient(username string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:         uuid.New(),
		Username:   username,
		Conn:       conn,
		Send:       make(chan []byte, 256),
		Hub:        hub,
		Subscribed: make(map[string]bool),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("clientId", c.ID.String()).
					Msg("WebSocket read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().
			Err(err).
			Str("clientId", c.ID.String()).
			Msg("Failed to parse client message")
		return
	}

	switch msg.Type {
	case "SUBSCRIBE":
		if topic, ok := parseTopic(msg.Data); ok {
			if !c.Hub.Subscribe(c, topic) {
				log.Warn().Str("topic", topic).Str("clientId", c.ID.String()).Msg("Subscribe to unknown topic")
			}
		}
	case "UNSUBSCRIBE":
		if topic, ok := parseTopic(msg.Data); ok {
			c.Hub.Unsubscribe(c, topic)
		}
	case "HEARTBEAT":
		c.SendEvent(&Event{
			Type: EventTypeHeartbeatAck,
			Data: map[string]interface{}{
				"timestamp": time.Now().UnixMilli(),
			},
		})
	default:
		log.Warn().
			Str("type", msg.Type).
			Str("clientId", c.ID.String()).
			Msg("Unknown message type")
	}
}

func parseTopic(data json.RawMessage) (string, bool) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Topic == "" {
		return "", false
	}
	return req.Topic, true
}

// SendEvent sends an event directly to this client
func (c *Client) SendEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	select {
	case c.Send <- data:
	default:
	}
}
