package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triviarena/backend/internal/auth/jwt"
	"github.com/triviarena/backend/internal/game"
	"github.com/triviarena/backend/internal/leaderboard"
)

type stubTokens struct {
	users map[string]uuid.UUID
}

func (s *stubTokens) ValidateToken(token string) (*jwt.Claims, error) {
	id, ok := s.users[token]
	if !ok {
		return nil, jwt.ErrInvalidToken
	}
	return &jwt.Claims{UserID: id}, nil
}

type stubMembers struct {
	allowed map[uuid.UUID]bool
}

func (s *stubMembers) IsMember(_ context.Context, lobbyID, _ uuid.UUID) (bool, error) {
	return s.allowed[lobbyID], nil
}

type stubReady struct {
	calls int
}

func (s *stubReady) SetReady(context.Context, uuid.UUID, uuid.UUID, bool) error {
	s.calls++
	return nil
}

type wsRig struct {
	hub     *Hub
	server  *httptest.Server
	tokens  *stubTokens
	members *stubMembers
	ready   *stubReady
}

func newWSRig(t *testing.T) *wsRig {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	tokens := &stubTokens{users: map[string]uuid.UUID{}}
	members := &stubMembers{allowed: map[uuid.UUID]bool{}}
	ready := &stubReady{}
	handler := NewWSHandler(hub, tokens, members, ready, zerolog.Nop())

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &wsRig{hub: hub, server: server, tokens: tokens, members: members, ready: ready}
}

func (r *wsRig) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(r.server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitRegistered(t *testing.T, hub *Hub, userIDs ...uuid.UUID) {
	t.Helper()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for _, id := range userIDs {
			if _, ok := hub.connections[id]; !ok {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWSRejectsMissingToken(t *testing.T) {
	rig := newWSRig(t)

	resp, err := http.Get(rig.server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSRejectsBadToken(t *testing.T) {
	rig := newWSRig(t)

	url := "ws" + strings.TrimPrefix(rig.server.URL, "http") + "?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSPingPong(t *testing.T) {
	rig := newWSRig(t)
	userID := uuid.New()
	rig.tokens.users["alice"] = userID

	conn := rig.dial(t, "alice")
	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))

	msg := readMessage(t, conn)
	assert.Equal(t, TypePong, msg.Type)
}

func TestWSLobbyJoinAndBroadcast(t *testing.T) {
	rig := newWSRig(t)
	lobbyID := uuid.New()
	rig.members.allowed[lobbyID] = true

	alice, bob := uuid.New(), uuid.New()
	rig.tokens.users["alice"] = alice
	rig.tokens.users["bob"] = bob

	aliceConn := rig.dial(t, "alice")
	bobConn := rig.dial(t, "bob")

	join, _ := json.Marshal(LobbyJoinPayload{LobbyID: lobbyID})
	require.NoError(t, aliceConn.WriteJSON(Message{Type: TypeLobbyJoin, Payload: join}))
	require.NoError(t, bobConn.WriteJSON(Message{Type: TypeLobbyJoin, Payload: join}))

	require.Eventually(t, func() bool {
		return len(rig.hub.RoomMembers(LobbyRoom(lobbyID))) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rig.hub.Broadcast(LobbyRoom(lobbyID), NewMessage(TypeLobbyPlayerJoined, PlayerJoinedPayload{
		LobbyID: lobbyID,
		UserID:  bob,
	}))

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeLobbyPlayerJoined, msg.Type)

		var payload PlayerJoinedPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, bob, payload.UserID)
	}
}

func TestWSLobbyJoinRejectsNonMember(t *testing.T) {
	rig := newWSRig(t)
	lobbyID := uuid.New() // not in members.allowed

	rig.tokens.users["alice"] = uuid.New()
	conn := rig.dial(t, "alice")

	join, _ := json.Marshal(LobbyJoinPayload{LobbyID: lobbyID})
	require.NoError(t, conn.WriteJSON(Message{Type: TypeLobbyJoin, Payload: join}))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Empty(t, rig.hub.RoomMembers(LobbyRoom(lobbyID)))
}

func TestWSReadyRouting(t *testing.T) {
	rig := newWSRig(t)
	rig.tokens.users["alice"] = uuid.New()
	conn := rig.dial(t, "alice")

	payload, _ := json.Marshal(LobbyReadyPayload{LobbyID: uuid.New(), Ready: true})
	require.NoError(t, conn.WriteJSON(Message{Type: TypeLobbyReady, Payload: payload}))

	assert.Eventually(t, func() bool { return rig.ready.calls == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSUnknownTypeReturnsError(t *testing.T) {
	rig := newWSRig(t)
	rig.tokens.users["alice"] = uuid.New()
	conn := rig.dial(t, "alice")

	require.NoError(t, conn.WriteJSON(Message{Type: "does-not-exist"}))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
}

func TestWSDisconnectAnnouncesToGameRoom(t *testing.T) {
	rig := newWSRig(t)
	lobbyID, gameID := uuid.New(), uuid.New()

	alice, bob := uuid.New(), uuid.New()
	rig.tokens.users["alice"] = alice
	rig.tokens.users["bob"] = bob

	aliceConn := rig.dial(t, "alice")
	bobConn := rig.dial(t, "bob")

	waitRegistered(t, rig.hub, alice, bob)
	rig.hub.MoveToGame(lobbyID, gameID, []uuid.UUID{alice, bob})

	require.NoError(t, aliceConn.Close())

	msg := readMessage(t, bobConn)
	assert.Equal(t, TypeGamePlayerDisconnected, msg.Type)

	var payload PlayerDisconnectedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, alice, payload.UserID)
	assert.Equal(t, gameID, payload.GameID)
}

func TestHubSupersedesDuplicateConnections(t *testing.T) {
	rig := newWSRig(t)
	alice := uuid.New()
	rig.tokens.users["alice"] = alice

	first := rig.dial(t, "alice")
	waitRegistered(t, rig.hub, alice)

	second := rig.dial(t, "alice")

	// The first connection is closed by the hub; reads on it fail soon.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	var discard Message
	err := first.ReadJSON(&discard)
	require.Error(t, err)

	// The second connection still works.
	require.NoError(t, second.WriteJSON(Message{Type: TypePing}))
	msg := readMessage(t, second)
	assert.Equal(t, TypePong, msg.Type)
}

func TestNotifierGamePayloadShapes(t *testing.T) {
	rig := newWSRig(t)
	lobbyID, gameID := uuid.New(), uuid.New()

	alice, bob := uuid.New(), uuid.New()
	rig.tokens.users["alice"] = alice
	rig.tokens.users["bob"] = bob

	aliceConn := rig.dial(t, "alice")
	_ = rig.dial(t, "bob")

	waitRegistered(t, rig.hub, alice, bob)

	notifier := NewNotifier(rig.hub, zerolog.Nop())
	notifier.GameStarted(gameID, lobbyID, []uuid.UUID{alice, bob})

	msg := readMessage(t, aliceConn)
	require.Equal(t, TypeGameStarted, msg.Type)

	notifier.LeaderboardUpdated(gameID, []leaderboard.Entry{
		{UserID: alice, Score: 150, Rank: 1},
		{UserID: bob, Score: 0, Rank: 2},
	})

	msg = readMessage(t, aliceConn)
	require.Equal(t, TypeGameLeaderboardUpdate, msg.Type)
	var board LeaderboardUpdatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &board))
	assert.Equal(t, gameID, board.GameID)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, alice, board.Leaderboard[0].UserID)
	assert.Equal(t, 150, board.Leaderboard[0].Score)

	notifier.GameOver(gameID, []game.PlayerResult{
		{UserID: alice, Rank: 1, Score: 150, Victory: true},
		{UserID: bob, Rank: 2},
	})

	msg = readMessage(t, aliceConn)
	require.Equal(t, TypeGameOver, msg.Type)
	var over GameOverPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &over))
	assert.Equal(t, gameID, over.GameID)
	require.Len(t, over.Results, 2)
	assert.True(t, over.Results[0].Victory)
	assert.Equal(t, bob, over.Results[1].UserID)
}

func TestMoveToGameClearsLobbyRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	lobbyID, gameID := uuid.New(), uuid.New()
	alice, bob := uuid.New(), uuid.New()

	hub.JoinRoom(LobbyRoom(lobbyID), alice)
	hub.JoinRoom(LobbyRoom(lobbyID), bob)

	hub.MoveToGame(lobbyID, gameID, []uuid.UUID{alice, bob})

	assert.Empty(t, hub.RoomMembers(LobbyRoom(lobbyID)))
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, hub.RoomMembers(GameRoom(gameID)))
}
