package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, maxRetries int) *openAIClient {
	t.Helper()
	return &openAIClient{
		log:        testLogger(t).With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     "test-key",
		model:      "gpt-4o-mini",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		maxRetries: maxRetries,
	}
}

func TestCompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteTextSendsChatTurns(t *testing.T) {
	var body chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	messages := []ChatMessage{
		{Role: "system", Content: "assistant prompt"},
		{Role: "user", Content: "hi"},
	}
	content, err := client.CompleteText(context.Background(), messages)
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if content != "hello there" {
		t.Fatalf("content = %q", content)
	}
	if len(body.Messages) != 2 || body.Messages[1].Content != "hi" {
		t.Fatalf("messages = %+v", body.Messages)
	}
	if body.MaxTokens != 500 {
		t.Fatalf("max_tokens = %d, want 500", body.MaxTokens)
	}
	if body.ResponseFormat != nil {
		t.Fatal("free-form completion must not force a response format")
	}
}

func TestCompleteJSONRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestCompleteJSONGivesUpOn400(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retries on client errors)", calls.Load())
	}
}

func TestIsRetryableErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"http 500", &openAIHTTPError{StatusCode: 500}, true},
		{"http 429", &openAIHTTPError{StatusCode: 429}, true},
		{"http 404", &openAIHTTPError{StatusCode: 404}, false},
	}
	for _, tc := range cases {
		if got := isRetryableErr(tc.err); got != tc.want {
			t.Errorf("%s: isRetryableErr = %v, want %v", tc.name, got, tc.want)
		}
	}
}
