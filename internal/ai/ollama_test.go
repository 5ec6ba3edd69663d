package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	var body ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.1:8b",
			"message":           map[string]any{"role": "assistant", "content": "hello"},
			"done":              true,
			"prompt_eval_count": 4,
			"eval_count":        2,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(RuntimeConfig{Host: srv.URL, HTTPTimeout: 2 * time.Second, RetryMax: 1})
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:       "llama3.1:8b",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		MaxTokens:   64,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "hello" {
		t.Fatalf("unexpected content: %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 6 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if body.Stream || body.Format != "json" || body.Options.NumPredict != 64 {
		t.Fatalf("request not mapped: %+v", body)
	}
}

func TestOllamaEmptyMessages(t *testing.T) {
	c := NewOllamaClient(RuntimeConfig{Host: "http://127.0.0.1:1"})
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "x"}); err == nil {
		t.Fatalf("expected error for empty messages")
	}
}

func TestOllamaUnreachable(t *testing.T) {
	c := NewOllamaClient(RuntimeConfig{Host: "http://127.0.0.1:1", RetryMax: 1, HTTPTimeout: time.Second})
	_, err := c.Generate(context.Background(), hiRequest)
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T: %v", err, err)
	}
}
