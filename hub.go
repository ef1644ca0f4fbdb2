package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dustveil/server/logging"
	logginglifecycle "dustveil/server/logging/lifecycle"
	loggingnetwork "dustveil/server/logging/network"
)

// subscriber wraps one websocket connection with a write mutex so the tick
// broadcast and direct replies never interleave frames.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// Hub is the trust boundary between connections and the room actor: it owns
// connection bookkeeping, validates and clamps every inbound message, and
// fans outbound payloads to all live sessions. Gameplay mutation always goes
// through the room's command queue.
type Hub struct {
	mu          sync.Mutex
	room        *Room
	subscribers map[string]*subscriber // session id -> connection
	sessions    map[string]string      // session id -> player id
	pending     int                    // connects between loop start and registration
	running     bool
	stop        chan struct{}

	publisher logging.Publisher
	telemetry *telemetryCounters
	logger    *log.Logger
}

// NewHub builds a hub owning a single room.
func NewHub(roomID string, cfg RoomConfig, publisher logging.Publisher, logger *log.Logger) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if logger == nil {
		logger = log.Default()
	}
	h := &Hub{
		subscribers: make(map[string]*subscriber),
		sessions:    make(map[string]string),
		publisher:   publisher,
		telemetry:   newTelemetryCounters(),
		logger:      logger,
	}
	h.room = NewRoom(roomID, cfg, h, publisher, h.telemetry)
	return h
}

// Room exposes the underlying room for tests and diagnostics.
func (h *Hub) Room() *Room {
	return h.room
}

// Connect registers a websocket for a (possibly resuming) player id, starts
// the simulation loop if it was stopped, and sends the hello message on the
// new session only.
func (h *Hub) Connect(conn *websocket.Conn, playerID, name string) (string, error) {
	sessionID := uuid.NewString()

	h.mu.Lock()
	h.startLocked()
	h.pending++
	h.mu.Unlock()

	// The join reply must be awaited without holding the hub mutex: the
	// room goroutine may be mid-broadcast and need it.
	joined := make(chan joinResult, 1)
	h.room.enqueueWait(roomCommand{kind: cmdJoin, playerID: playerID, name: name, joined: joined})
	result := <-joined

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[sessionID] = sub
	h.sessions[sessionID] = result.player.ID
	h.pending--
	h.mu.Unlock()

	hello := helloMessage{
		Ver:        ProtocolVersion,
		Type:       "hello",
		ID:         result.player.ID,
		Now:        time.Now().UnixMilli(),
		Player:     result.player,
		Difficulty: result.difficulty,
	}
	data, err := json.Marshal(hello)
	if err != nil {
		h.Disconnect(sessionID)
		return "", err
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Disconnect(sessionID)
		return "", err
	}

	logginglifecycle.PlayerJoined(context.Background(), h.publisher, h.room.CurrentTick(),
		logging.EntityRef{ID: result.player.ID, Kind: logging.EntityKindPlayer})
	return sessionID, nil
}

// startLocked arms the simulation loop. Idempotent: a disconnect racing a
// fresh connection re-arms the loop instead of leaving it stopped.
func (h *Hub) startLocked() {
	if h.running {
		return
	}
	h.stop = make(chan struct{})
	h.running = true
	go h.room.run(h.stop)
}

func (h *Hub) stopLocked() {
	if !h.running {
		return
	}
	close(h.stop)
	h.running = false
}

// Disconnect removes the session and stops the loop when the connection set
// empties. The player record stays behind for the reconnection grace window.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[sessionID]
	playerID, sessionOK := h.sessions[sessionID]
	delete(h.subscribers, sessionID)
	delete(h.sessions, sessionID)
	empty := len(h.subscribers) == 0
	h.mu.Unlock()

	if sessionOK {
		h.room.enqueue(roomCommand{kind: cmdLeave, playerID: playerID})
		logginglifecycle.PlayerDisconnected(context.Background(), h.publisher, h.room.CurrentTick(),
			logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer})
	}
	if subOK {
		sub.conn.Close()
	}

	if empty {
		h.mu.Lock()
		// Re-check under the lock: a new connection may have arrived or
		// be mid-join.
		if len(h.subscribers) == 0 && h.pending == 0 {
			h.stopLocked()
		}
		h.mu.Unlock()
	}
}

// Running reports whether the tick loop is armed.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// HandleMessage validates one inbound frame and dispatches it by its type
// discriminator. Malformed payloads are dropped; unknown types ignored.
func (h *Hub) HandleMessage(sessionID string, payload []byte) {
	h.mu.Lock()
	playerID, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
		return
	}

	switch msg.Type {
	case "input":
		intent := &inputIntent{
			right:   clamp(msg.Move[0], -1, 1),
			forward: clamp(-msg.Move[2], -1, 1),
			jump:    msg.Move[1] > 0.5,
			aim:     Vec3{X: msg.Aim[0], Y: msg.Aim[1], Z: msg.Aim[2]}.Normalized(),
			firing:  msg.Firing,
		}
		h.room.enqueue(roomCommand{kind: cmdInput, playerID: playerID, input: intent})
	case "pickup":
		if msg.LootID == "" {
			return
		}
		h.room.enqueue(roomCommand{kind: cmdPickup, playerID: playerID, lootID: msg.LootID})
	case "equip":
		if msg.ItemID == "" {
			return
		}
		h.room.enqueue(roomCommand{kind: cmdEquip, playerID: playerID, itemID: msg.ItemID})
	case "setDifficulty":
		h.room.enqueue(roomCommand{kind: cmdSetDifficulty, playerID: playerID, level: Difficulty(msg.Level)})
	case "analytics":
		h.room.enqueue(roomCommand{kind: cmdAnalytics, playerID: playerID, analytics: msg.Data})
	default:
		h.logger.Printf("unknown message type %q from %s", msg.Type, playerID)
	}
}

// Broadcast marshals a payload once and writes it to every live session. A
// failed write marks that session unhealthy and disconnects it without
// touching the others.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("failed to marshal broadcast payload: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for sessionID, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("failed to send to session %s: %v", sessionID, err)
			loggingnetwork.SendFailed(context.Background(), h.publisher, h.room.CurrentTick(), sessionID, err)
			h.Disconnect(sessionID)
		}
	}
	h.telemetry.RecordBroadcast(len(data) * len(subs))
}

// DiagnosticsSnapshot backs the /diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() (int, telemetrySnapshot) {
	h.mu.Lock()
	connections := len(h.subscribers)
	h.mu.Unlock()
	return connections, h.telemetry.Snapshot()
}
