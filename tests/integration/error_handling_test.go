//go:build integration
// +build integration

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{"POST", "/v1/lobbies"},
		{"POST", "/v1/lobbies/join"},
		{"GET", "/v1/users/me"},
		{"GET", "/v1/games/" + uuid.NewString()},
	}

	for _, p := range paths {
		resp := request(t, p.method, p.path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	resp := request(t, "GET", "/v1/users/me", "not-a-jwt", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	user := registerUser(t, "badjson")

	req, err := http.NewRequest("POST", baseURL()+"/v1/lobbies", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUnknownLobbyReturnsNotFound(t *testing.T) {
	user := registerUser(t, "missing-lobby")

	resp := request(t, "GET", "/v1/lobbies/"+uuid.NewString(), user.Token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var errResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &errResp)
	if errResp.Error != "lobby_not_found" {
		t.Fatalf("unexpected error code: %s", errResp.Error)
	}
}

func TestJoinUnknownCodeReturnsNotFound(t *testing.T) {
	user := registerUser(t, "missing-code")

	resp := request(t, "POST", "/v1/lobbies/join", user.Token, map[string]string{
		"code": "ZZZZZZ",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
