package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

func TestClient_CompleteWithSystem(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		response   interface{}
		statusCode int
		wantErr    error
	}{
		{
			name: "successful completion",
			response: llm.ChatResponse{
				Choices: []llm.Choice{
					{Message: llm.Message{Role: "assistant", Content: `["Violin Sonata No.6 (Ysaÿe, Eugène)"]`}},
				},
			},
			statusCode: http.StatusOK,
		},
		{
			name:       "unauthorized",
			response:   map[string]string{"error": "unauthorized"},
			statusCode: http.StatusUnauthorized,
			wantErr:    llm.ErrAuthFailed,
		},
		{
			name:       "rate limit",
			response:   map[string]string{"error": "rate limit"},
			statusCode: http.StatusTooManyRequests,
			wantErr:    llm.ErrRateLimit,
		},
		{
			name:       "server error",
			response:   map[string]string{"error": "oops"},
			statusCode: http.StatusInternalServerError,
			wantErr:    llm.ErrRequestFailed,
		},
		{
			name: "empty response",
			response: llm.ChatResponse{
				Choices: []llm.Choice{},
			},
			statusCode: http.StatusOK,
			wantErr:    llm.ErrEmptyResponse,
		},
		{
			name:       "error in body",
			response:   map[string]any{"error": map[string]string{"message": "model overloaded"}},
			statusCode: http.StatusOK,
			wantErr:    llm.ErrRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Error("missing authorization header")
				}
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s", r.URL.Path)
				}

				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := New(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			}, logger)

			result, err := client.CompleteWithSystem(context.Background(), "system", "prompt")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CompleteWithSystem() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("CompleteWithSystem() unexpected error = %v", err)
				return
			}

			if result == "" {
				t.Error("CompleteWithSystem() returned empty result")
			}
		})
	}
}

func TestClient_NoKey(t *testing.T) {
	client := New(Config{}, zap.NewNop())
	if _, err := client.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("err = %v, want %v", err, llm.ErrNotConfigured)
	}
}

func TestClient_RequestCarriesFallbacksAndTokenCap(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "mistralai/mistral-small",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `["Boléro (Ravel, Maurice)"]`}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	client := New(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		FallbackModels: []string{"mistralai/mistral-small"},
	}, zap.NewNop())

	result, err := client.CompleteWithSystem(context.Background(), "system", "ravel bolero")
	if err != nil {
		t.Fatalf("CompleteWithSystem() error = %v", err)
	}
	if !strings.Contains(result, "Boléro") {
		t.Errorf("result = %q", result)
	}

	if got.Model != "deepseek/deepseek-chat" {
		t.Errorf("model = %q", got.Model)
	}
	wantModels := []string{"deepseek/deepseek-chat", "mistralai/mistral-small"}
	if strings.Join(got.Models, ",") != strings.Join(wantModels, ",") {
		t.Errorf("models = %v, want %v", got.Models, wantModels)
	}
	if got.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", got.MaxTokens, defaultMaxTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestClient_NoFallbacksOmitsModels(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(llm.ChatResponse{
			Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: "[]"}}},
		})
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())
	if _, err := client.CompleteWithSystem(context.Background(), "s", "p"); err != nil {
		t.Fatalf("CompleteWithSystem() error = %v", err)
	}
	if _, ok := raw["models"]; ok {
		t.Errorf("models should be omitted, got %v", raw["models"])
	}
}

func TestClient_TruncatedCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `["Piano Sonata No.1`}, "finish_reason": "length"},
			},
		})
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL, MaxTokens: 8}, zap.NewNop())
	if _, err := client.CompleteWithSystem(context.Background(), "s", "p"); !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want %v", err, ErrTruncated)
	}
}
