package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/vibecheck/internal/model"
)

var tmobile = model.Carrier{ID: "tmobile", Display: "T-Mobile", Color: "#E20074"}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: openai.Usage{TotalTokens: 100},
	}
}

func newTestProvider(t *testing.T, url string, retries int) *OpenAIProvider {
	t.Helper()
	logger, _ := test.NewNullLogger()
	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: 5,
		Retries: retries,
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	provider.retryDelay = time.Millisecond
	return provider
}

func TestOpenAIProvider_Research_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != openai.GPT4oMini {
			t.Errorf("Expected default model, got %s", req.Model)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "T-Mobile") {
			t.Errorf("Expected prompt naming the carrier, got %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(chatResponse(`<think>counting reviews</think>{"positive_pct": 60}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, 0)

	raw, err := provider.Research(context.Background(), ResearchRequest{Carrier: tmobile, View: model.ViewSummary})
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}
	if string(raw) != `{"positive_pct": 60}` {
		t.Errorf("Expected reasoning stripped, got %q", raw)
	}
}

func TestOpenAIProvider_Research_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse(`{"ok": true}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, 1)

	if _, err := provider.Research(context.Background(), ResearchRequest{Carrier: tmobile, View: model.ViewTriage}); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected 2 calls, got %d", n)
	}
}

func TestOpenAIProvider_Research_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{malformed json`))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			resp := chatResponse("")
			resp.Choices = nil
			_ = json.NewEncoder(w).Encode(resp)
		}},
		{"only reasoning", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatResponse("<think>hmm</think>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider := newTestProvider(t, server.URL, 0)
			if _, err := provider.Research(context.Background(), ResearchRequest{Carrier: tmobile, View: model.ViewSummary}); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestOpenAIProvider_Research_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(chatResponse(`{}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Research(ctx, ResearchRequest{Carrier: tmobile, View: model.ViewSummary}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestNewProvider(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	tests := []struct {
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{Config{Provider: "openai"}, "", true},
		{Config{Provider: "nvidia", APIKey: "k"}, "nvidia", false},
		{Config{Provider: "nemotron"}, "", true},
		{Config{Provider: "ollama"}, "ollama", false},
		{Config{Provider: "file", FixtureDir: dir}, "file", false},
		{Config{Provider: "file", FixtureDir: dir + "/missing"}, "", true},
		{Config{Provider: "perplexity"}, "", true},
	}

	for _, tt := range tests {
		p, err := NewProvider(tt.cfg, logger)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q) error = %v, wantErr %v", tt.cfg.Provider, err, tt.wantErr)
			continue
		}
		if err == nil && p.Name() != tt.wantName {
			t.Errorf("NewProvider(%q) name = %s, want %s", tt.cfg.Provider, p.Name(), tt.wantName)
		}
	}
}

func TestNVIDIAProvider_Defaults(t *testing.T) {
	p, err := NewNVIDIAProvider(Config{APIKey: "k"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.config.BaseURL != NVIDIABaseURL || p.config.Model != defaultNVIDIAModel {
		t.Errorf("unexpected defaults %+v", p.config)
	}
	if p.limiterKey != "integrate.api.nvidia.com" {
		t.Errorf("Expected limiter keyed by host, got %s", p.limiterKey)
	}
}

func TestConfigFromModel_EnvKey(t *testing.T) {
	t.Setenv("NVIDIA_API_KEY", "nv-secret")

	cfg := ConfigFromModel(model.ResearchConfig{Provider: "nvidia"})
	if cfg.APIKey != "nv-secret" {
		t.Errorf("Expected key from environment, got %q", cfg.APIKey)
	}

	cfg = ConfigFromModel(model.ResearchConfig{Provider: "nvidia", APIKey: "explicit"})
	if cfg.APIKey != "explicit" {
		t.Errorf("Expected configured key to win, got %q", cfg.APIKey)
	}
}

func TestBuildPrompt(t *testing.T) {
	for _, view := range model.AllViews() {
		prompt := BuildPrompt(ResearchRequest{Carrier: tmobile, View: view})
		if !strings.Contains(prompt, "T-Mobile") {
			t.Errorf("%s prompt does not name the carrier", view)
		}
		if !strings.Contains(SystemPrompt(view), "{") {
			t.Errorf("%s system prompt has no schema", view)
		}
	}

	if got := BuildPrompt(ResearchRequest{Prompt: "custom"}); got != "custom" {
		t.Errorf("Expected custom prompt, got %q", got)
	}
}
