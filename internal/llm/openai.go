package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/extract"
	"github.com/ppiankov/vibecheck/internal/util"
	"github.com/ppiankov/vibecheck/internal/worker"
)

// OpenAI-compatible endpoints
const (
	NVIDIABaseURL = "https://integrate.api.nvidia.com/v1"
	OllamaBaseURL = "http://localhost:11434/v1"

	defaultNVIDIAModel = "nvidia/llama-3.3-nemotron-super-49b-v1"
	defaultOllamaModel = "llama3.1"
)

// OpenAIProvider researches through any OpenAI-compatible chat completions API
type OpenAIProvider struct {
	name       string
	client     *openai.Client
	config     Config
	limiter    *worker.Limiter
	limiterKey string
	retryDelay time.Duration
	log        logrus.FieldLogger
}

// NewOpenAIProvider creates a provider for OpenAI itself
func NewOpenAIProvider(config Config, log logrus.FieldLogger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return newCompatibleProvider("openai", config, log), nil
}

// NewNVIDIAProvider creates a provider for NVIDIA hosted models such as Nemotron
func NewNVIDIAProvider(config Config, log logrus.FieldLogger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("NVIDIA API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = NVIDIABaseURL
	}
	if config.Model == "" {
		config.Model = defaultNVIDIAModel
	}
	return newCompatibleProvider("nvidia", config, log), nil
}

// NewOllamaProvider creates a provider for a local Ollama server
func NewOllamaProvider(config Config, log logrus.FieldLogger) (*OpenAIProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = OllamaBaseURL
	}
	if config.APIKey == "" {
		config.APIKey = "ollama" // ignored by the server
	}
	if config.Model == "" {
		config.Model = defaultOllamaModel
	}
	return newCompatibleProvider("ollama", config, log), nil
}

func newCompatibleProvider(name string, config Config, log logrus.FieldLogger) *OpenAIProvider {
	if log == nil {
		log = logrus.StandardLogger()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		name:       name,
		client:     openai.NewClientWithConfig(clientConfig),
		config:     config,
		limiter:    worker.NewLimiter(config.RequestsPerSecond, config.BurstSize),
		limiterKey: worker.HostKey(clientConfig.BaseURL),
		retryDelay: time.Second,
		log:        log.WithField("provider", name),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Research asks the model for the view's JSON and returns it with reasoning blocks removed
func (p *OpenAIProvider) Research(ctx context.Context, req ResearchRequest) ([]byte, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt(req.View),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.Retries; attempt++ {
		delay := time.Duration(attempt) * p.retryDelay
		if err := p.limiter.WaitWithDelay(ctx, p.limiterKey, delay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		content, err := p.complete(ctx, timeout, chatReq)
		if err == nil {
			return []byte(content), nil
		}
		lastErr = err

		p.log.WithFields(logrus.Fields{
			"carrier": req.Carrier.ID,
			"view":    req.View,
			"attempt": attempt + 1,
			"error":   err,
		}).Warn("research call failed")
	}

	return nil, lastErr
}

func (p *OpenAIProvider) complete(ctx context.Context, timeout time.Duration, chatReq openai.ChatCompletionRequest) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.name)
	}

	content := extract.StripReasoning(resp.Choices[0].Message.Content)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty response from %s", p.name)
	}

	p.log.WithFields(logrus.Fields{
		"model":  resp.Model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("research call complete")

	return content, nil
}
