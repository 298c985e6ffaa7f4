//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL(), "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func TestWSRejectsMissingToken(t *testing.T) {
	url := "ws" + strings.TrimPrefix(baseURL(), "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestWSPingPong(t *testing.T) {
	user := registerUser(t, "ws-ping")
	conn := dialWS(t, user.Token)

	if err := conn.WriteJSON(wsMessage{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != "pong" {
		t.Fatalf("expected pong, got %s", msg.Type)
	}
}

func TestWSLobbyJoinBroadcast(t *testing.T) {
	topic := topicID(t)
	owner := registerUser(t, "ws-owner")
	guest := registerUser(t, "ws-guest")

	lobby := createLobby(t, owner, topic, 5)

	ownerConn := dialWS(t, owner.Token)
	if err := ownerConn.WriteJSON(wsMessage{
		Type:    "lobby:join",
		Payload: json.RawMessage(`{"lobby_id":"` + lobby.ID + `"}`),
	}); err != nil {
		t.Fatalf("owner lobby:join: %v", err)
	}

	// Give the subscription a moment to land before triggering the event.
	time.Sleep(200 * time.Millisecond)

	joinResp := request(t, "POST", "/v1/lobbies/join", guest.Token, map[string]string{
		"code": lobby.Code,
	})
	joinResp.Body.Close()
	if joinResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected join status: %d", joinResp.StatusCode)
	}

	if err := ownerConn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg wsMessage
	if err := ownerConn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "lobby:player_joined" {
		t.Fatalf("expected lobby:player_joined, got %s", msg.Type)
	}

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.UserID != guest.ID {
		t.Fatalf("expected joining user %s, got %s", guest.ID, payload.UserID)
	}
}
