package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return &Client{
		apiKey:  "test-key",
		baseURL: url,
		model:   "gpt-4o-mini",
		http:    &http.Client{Timeout: 200 * time.Millisecond},
	}
}

func TestReplyForwardsSystemPromptAndHistory(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Hi!  "}},
			},
		})
	}))
	defer srv.Close()

	history := make([]Message, 14)
	for i := range history {
		history[i] = Message{Role: "user", Content: "old"}
	}
	reply, err := newTestClient(srv.URL).Reply(context.Background(), "How do I reopen a complaint?", history)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "Hi!" {
		t.Fatalf("reply not trimmed: %q", reply)
	}
	// system prompt + capped history + current message
	if len(got.Messages) != 1+historyLimit+1 {
		t.Fatalf("expected %d messages, got %d", 2+historyLimit, len(got.Messages))
	}
	if got.Messages[0].Role != "system" {
		t.Fatalf("first message should be the system prompt, got %q", got.Messages[0].Role)
	}
	if got.MaxTokens != 500 || got.Temperature != 0.7 {
		t.Fatalf("unexpected sampling params: %+v", got)
	}
}

func TestReplyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Reply(context.Background(), "hello", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestReplyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Reply(context.Background(), "hello", nil)
	if err == nil || err.Error() != "ai: upstream error: rate limited" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplyNotConfigured(t *testing.T) {
	c := &Client{}
	if _, err := c.Reply(context.Background(), "hi", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
