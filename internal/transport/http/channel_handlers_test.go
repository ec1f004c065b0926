package http

import (
	"net/http"
	"testing"
)

func TestChannelRegisterAndList(t *testing.T) {
	ts, service := startTestServer(t)

	var out struct {
		Topic string `json:"topic"`
		Ready bool   `json:"ready"`
	}
	status := postJSON(t, ts.URL+"/channels/register", map[string]any{
		"conversation_key": "40-39",
		"user_id":          39,
	}, &out)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if out.Topic != "conv:39-40" || !out.Ready {
		t.Fatalf("unexpected response: %+v", out)
	}
	if !service.Topics().Exists("conv:39-40") {
		t.Fatal("topic not registered")
	}

	// Registration is idempotent.
	if status := postJSON(t, ts.URL+"/channels/register", map[string]any{
		"conversation_key": "39-40",
		"user_id":          40,
	}, nil); status != http.StatusOK {
		t.Fatalf("repeat registration failed: %d", status)
	}

	var list struct {
		Channels []string `json:"channels"`
		Total    int      `json:"total"`
	}
	if status := getJSON(t, ts.URL+"/channels/list", &list); status != http.StatusOK {
		t.Fatalf("list failed: %d", status)
	}
	if list.Total != 1 || len(list.Channels) != 1 || list.Channels[0] != "conv:39-40" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestChannelRegisterValidation(t *testing.T) {
	ts, _ := startTestServer(t)

	for _, body := range []map[string]any{
		{"user_id": 39},
		{"conversation_key": "39-40"},
		{"conversation_key": "7-7", "user_id": 7},
		{"conversation_key": "abc", "user_id": 39},
	} {
		if status := postJSON(t, ts.URL+"/channels/register", body, nil); status != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d", body, status)
		}
	}
}
