package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
)

// NewProvider creates a research provider based on configuration
func NewProvider(config Config, log logrus.FieldLogger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, log)

	case "nvidia", "nemotron":
		return NewNVIDIAProvider(config, log)

	case "ollama":
		return NewOllamaProvider(config, log)

	case "", "file":
		return NewFileProvider(config.FixtureDir)

	default:
		return nil, fmt.Errorf("unknown research provider: %s (supported: openai, nvidia, ollama, file)", config.Provider)
	}
}

// ConfigFromModel converts model.ResearchConfig to llm.Config.
// A missing API key is taken from OPENAI_API_KEY or NVIDIA_API_KEY.
func ConfigFromModel(rc model.ResearchConfig) Config {
	cfg := Config{
		Provider:          rc.Provider,
		Model:             rc.Model,
		APIKey:            rc.APIKey,
		BaseURL:           rc.BaseURL,
		Timeout:           rc.Timeout,
		MaxTokens:         rc.MaxTokens,
		FixtureDir:        rc.FixtureDir,
		RequestsPerSecond: rc.RequestsPerSecond,
		BurstSize:         rc.BurstSize,
		Retries:           DefaultConfig().Retries,
		HTTPProxy:         rc.HTTPProxy,
		HTTPSProxy:        rc.HTTPSProxy,
		NoProxy:           rc.NoProxy,
	}

	if cfg.APIKey == "" {
		switch strings.ToLower(cfg.Provider) {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "nvidia", "nemotron":
			cfg.APIKey = os.Getenv("NVIDIA_API_KEY")
		}
	}

	return cfg
}
