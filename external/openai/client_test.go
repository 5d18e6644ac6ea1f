package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/player-scout/internal/platform/resilience"
	"github.com/riskibarqy/player-scout/internal/usecase"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1718000000,
  "model": "gpt-4o-mini",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Kylian Mbappé \n"}}
  ],
  "usage": {"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45}
}`

func TestClientGenerate(t *testing.T) {
	t.Parallel()

	requests := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := sonic.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1/",
		Model:   "gpt-4o-mini",
	})

	got, err := client.Generate(context.Background(), usecase.TextRequest{
		System:      "You fix names.",
		Prompt:      "kilian mbape",
		MaxTokens:   50,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Kylian Mbappé" {
		t.Fatalf("unexpected completion %q", got)
	}

	captured := <-requests
	if captured["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model in request: %v", captured["model"])
	}
	if captured["max_tokens"] != float64(50) || captured["temperature"] != 0.2 {
		t.Fatalf("unexpected sampling params: %v", captured)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user message, got %v", captured["messages"])
	}
}

func TestClientGenerate_ServerErrorOpensBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1/",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})

	if _, err := client.Generate(context.Background(), usecase.TextRequest{Prompt: "hello"}); err == nil {
		t.Fatalf("expected error for 503")
	}
	_, err := client.Generate(context.Background(), usecase.TextRequest{Prompt: "hello"})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open breaker to reject, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

func TestClientGenerate_RejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1/"})
	_, err := client.Generate(context.Background(), usecase.TextRequest{Prompt: strings.Repeat(" ", 3)})
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
