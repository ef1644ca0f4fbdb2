package ws

import (
	"log"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	server "dustveil/server"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades HTTP requests to websocket sessions and pumps inbound
// frames into the hub. All validation and dispatch lives in the hub; the
// handler only owns the connection lifecycle.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Handle serves one websocket session. A client that reconnects with the
// same id within the grace window resumes its previous player.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		playerID = uuid.NewString()
	}
	name := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	sessionID, err := h.hub.Connect(conn, playerID, name)
	if err != nil {
		h.logger.Printf("join failed for %s: %v", playerID, err)
		conn.Close()
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(sessionID)
			return
		}
		h.hub.HandleMessage(sessionID, payload)
	}
}
