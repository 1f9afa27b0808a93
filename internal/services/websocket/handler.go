package websocket

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/internal/middleware"
	"github.com/zentra/emojimatch/internal/utils"
)

type Handler struct {
	hub            *Hub
	jwtSecret      string
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
}

func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		jwtSecret:      jwtSecret,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleWebSocket)
	r.Get("/stats", h.GetStats)

	return r
}

// checkOrigin allows non-browser clients (no Origin) and configured origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || h.allowedOrigins[origin]
}

// HandleWebSocket upgrades the connection. Viewing events is public; a valid
// token only labels the connection with its username.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}

	var username string
	if token != "" {
		principal, err := middleware.ParsePrincipal(strings.TrimSpace(token), h.jwtSecret)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		username = principal.Username
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(username, conn, h.hub)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	client.SendEvent(&Event{
		Type: EventTypeReady,
		Data: map[string]interface{}{
			"clientId": client.ID.String(),
			"username": username,
			"topics":   []string{TopicEmojis, TopicLeaders},
		},
	})

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, map[string]interface{}{
		"clients": h.hub.ClientCount(),
		"subscribers": map[string]int{
			TopicEmojis:  h.hub.SubscriberCount(TopicEmojis),
			TopicLeaders: h.hub.SubscriberCount(TopicLeaders),
		},
	})
}
