package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/metrics"
)

// LobbyRoom returns the fan-out room key for a lobby.
func LobbyRoom(lobbyID uuid.UUID) string {
	return fmt.Sprintf("lobby:%s", lobbyID)
}

// GameRoom returns the fan-out room key for a game.
func GameRoom(gameID uuid.UUID) string {
	return fmt.Sprintf("game:%s", gameID)
}

// Hub manages WebSocket connections and room-scoped broadcasts. A player has
// at most one live connection; a newer connection supersedes the old one.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // user_id -> connection
	rooms       map[string][]uuid.UUID    // room key -> members
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string][]uuid.UUID),
		logger:      logger.With().Str("component", "hub").Logger(),
	}
}

// Register adds a connection for a user, superseding any existing one.
func (h *Hub) Register(userID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[userID]; exists {
		old.Close()
	} else {
		metrics.ConnectedClients.Inc()
	}

	h.connections[userID] = conn
	h.logger.Info().Str("user_id", userID.String()).Msg("connection registered")
}

// Unregister removes a user's connection and their room memberships. It
// returns the rooms the user was in so the caller can announce the
// disconnect. The connection is only removed if it is still the current one;
// a superseded connection must not tear down its successor.
func (h *Hub) Unregister(userID uuid.UUID, conn *Connection) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, exists := h.connections[userID]
	if !exists || current != conn {
		return nil
	}

	current.Close()
	delete(h.connections, userID)
	metrics.ConnectedClients.Dec()

	var left []string
	for room, users := range h.rooms {
		for i, uid := range users {
			if uid == userID {
				h.rooms[room] = append(users[:i], users[i+1:]...)
				left = append(left, room)
				break
			}
		}
	}

	h.logger.Info().Str("user_id", userID.String()).Msg("connection unregistered")
	return left
}

// JoinRoom associates a user with a room for targeted broadcasts.
func (h *Hub) JoinRoom(room string, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(room, userID)
}

func (h *Hub) joinRoomLocked(room string, userID uuid.UUID) {
	users := h.rooms[room]
	for _, uid := range users {
		if uid == userID {
			return
		}
	}
	h.rooms[room] = append(users, userID)
}

// LeaveRoom removes a user from a room.
func (h *Hub) LeaveRoom(room string, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := h.rooms[room]
	for i, uid := range users {
		if uid == userID {
			h.rooms[room] = append(users[:i], users[i+1:]...)
			break
		}
	}
}

// MoveToGame migrates a started lobby's roster into the game room so gameplay
// events reach everyone without a client round trip.
func (h *Hub) MoveToGame(lobbyID, gameID uuid.UUID, playerIDs []uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms, LobbyRoom(lobbyID))
	for _, userID := range playerIDs {
		h.joinRoomLocked(GameRoom(gameID), userID)
	}
}

// Broadcast sends a message to all members of a room. Delivery failures to
// individual members are logged and skipped; one slow client must not block
// the rest.
func (h *Hub) Broadcast(room string, msg Message) {
	h.mu.RLock()
	users := append([]uuid.UUID(nil), h.rooms[room]...)
	h.mu.RUnlock()

	for _, userID := range users {
		if err := h.SendToUser(userID, msg); err != nil {
			h.logger.Warn().Err(err).
				Str("room", room).
				Str("user_id", userID.String()).
				Str("type", msg.Type).
				Msg("broadcast delivery failed")
		}
	}
}

// SendToUser delivers a message to a specific user.
func (h *Hub) SendToUser(userID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// RoomMembers returns a snapshot of a room's membership.
func (h *Hub) RoomMembers(room string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]uuid.UUID(nil), h.rooms[room]...)
}

// Connection represents a WebSocket connection with a buffered send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message)) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		// Ping keeps the read deadline fresh even without protocol pongs.
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		handler(msg)
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "user connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
