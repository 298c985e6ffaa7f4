//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type userInfo struct {
	ID    string
	Email string
	Token string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

// topicID returns the seeded topic the suite plays with, or skips the test
// when the environment does not provide one.
func topicID(t *testing.T) string {
	t.Helper()

	id := os.Getenv("INTEGRATION_TOPIC_ID")
	if id == "" {
		t.Skip("INTEGRATION_TOPIC_ID not set; lobby and game flows need a seeded topic")
	}
	return id
}

func registerUser(t *testing.T, label string) userInfo {
	t.Helper()

	email := fmt.Sprintf("%s-%d@example.com", label, time.Now().UnixNano())
	resp := request(t, "POST", "/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "testpassword123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if out.Token == "" {
		t.Fatal("empty token in register response")
	}

	return userInfo{ID: out.UserID, Email: out.Email, Token: out.Token}
}

func loginUser(t *testing.T, email, password string) userInfo {
	t.Helper()

	resp := request(t, "POST", "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return userInfo{ID: out.UserID, Email: out.Email, Token: out.Token}
}

func request(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, baseURL()+path, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

type lobbyView struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	OwnerID string `json:"owner_id"`
	Status  string `json:"status"`
	Players []struct {
		UserID  string `json:"user_id"`
		IsReady bool   `json:"is_ready"`
		IsOwner bool   `json:"is_owner"`
	} `json:"players"`
}

func createLobby(t *testing.T, owner userInfo, topic string, questions int) lobbyView {
	t.Helper()

	resp := request(t, "POST", "/v1/lobbies", owner.Token, map[string]interface{}{
		"topic_ids":      []string{topic},
		"question_count": questions,
		"max_players":    4,
		"difficulty":     map[string]int{"easy": questions},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected create lobby status: %d", resp.StatusCode)
	}

	var view lobbyView
	decodeBody(t, resp, &view)
	if view.Code == "" {
		t.Fatal("empty lobby code")
	}
	return view
}
