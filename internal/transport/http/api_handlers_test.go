package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHistoryEndpoint(t *testing.T) {
	ts, service := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Unknown pair: 200 with an empty list.
	var history HistoryResponse
	status := getJSON(t, ts.URL+"/api/v1/conversations/history?user_id_a=1&user_id_b=2", &history)
	if status != http.StatusOK {
		t.Fatalf("unexpected status for empty history: %d", status)
	}
	if len(history.Messages) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history.Messages))
	}

	for _, text := range []string{"one", "two"} {
		if _, err := service.HandleMessage(ctx, 39, 40, text); err != nil {
			t.Fatalf("seed message %q: %v", text, err)
		}
	}

	// Operand order does not matter.
	status = getJSON(t, ts.URL+"/api/v1/conversations/history?user_id_a=40&user_id_b=39", &history)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history.Messages))
	}
	if history.Messages[0].Seq != 1 || history.Messages[0].Text != "one" {
		t.Fatalf("expected oldest first, got %+v", history.Messages[0])
	}

	// Validation failures map to 400.
	for _, query := range []string{
		"user_id_a=39",
		"user_id_a=abc&user_id_b=40",
		"user_id_a=39&user_id_b=39",
		"user_id_a=0&user_id_b=40",
	} {
		if status := getJSON(t, ts.URL+"/api/v1/conversations/history?"+query, nil); status != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", query, status)
		}
	}
}

func TestUserConversationsEndpoint(t *testing.T) {
	ts, service := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := service.HandleMessage(ctx, 39, 40, "first"); err != nil {
		t.Fatalf("seed first: %v", err)
	}
	if _, err := service.HandleMessage(ctx, 41, 39, "second"); err != nil {
		t.Fatalf("seed second: %v", err)
	}

	var out UserConversationsResponse
	status := getJSON(t, ts.URL+"/api/v1/conversations/user/39", &out)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if len(out.Conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(out.Conversations))
	}
	// Most recently updated first.
	if out.Conversations[0].ParticipantLow != 39 || out.Conversations[0].ParticipantHigh != 41 {
		t.Fatalf("unexpected order: %+v", out.Conversations[0])
	}

	status = getJSON(t, ts.URL+"/api/v1/conversations/user/42", &out)
	if status != http.StatusOK {
		t.Fatalf("unexpected status for user without conversations: %d", status)
	}
	if len(out.Conversations) != 0 {
		t.Fatalf("expected no conversations, got %d", len(out.Conversations))
	}

	if status := getJSON(t, ts.URL+"/api/v1/conversations/user/abc", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed user id, got %d", status)
	}
	if status := getJSON(t, ts.URL+"/api/v1/conversations/user/0", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for user id 0, got %d", status)
	}
}

func TestRegisterPushTokenEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	var created struct {
		ID     int64 `json:"id"`
		UserID int64 `json:"user_id"`
	}
	status := postJSON(t, ts.URL+"/api/v1/push_tokens", map[string]any{
		"user_id": 39,
		"token":   "device-token-1",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("unexpected status: %d", status)
	}
	if created.UserID != 39 || created.ID == 0 {
		t.Fatalf("unexpected response: %+v", created)
	}

	// Re-registering the same token returns the same row.
	var again struct {
		ID int64 `json:"id"`
	}
	status = postJSON(t, ts.URL+"/api/v1/push_tokens", map[string]any{
		"user_id": 39,
		"token":   "device-token-1",
	}, &again)
	if status != http.StatusCreated {
		t.Fatalf("unexpected status on re-register: %d", status)
	}
	if again.ID != created.ID {
		t.Fatalf("expected same token id, got %d and %d", created.ID, again.ID)
	}

	for _, body := range []map[string]any{
		{"token": "no-user"},
		{"user_id": 39},
		{"user_id": 0, "token": "zero-user"},
	} {
		if status := postJSON(t, ts.URL+"/api/v1/push_tokens", body, nil); status != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d", body, status)
		}
	}
}
