package llm

import (
	"context"

	"github.com/ppiankov/vibecheck/internal/model"
)

// Provider supplies raw research for one carrier and view
type Provider interface {
	// Name returns the provider name
	Name() string

	// Research returns raw research output, a JSON object or text containing one
	Research(ctx context.Context, req ResearchRequest) ([]byte, error)
}

// ResearchRequest asks for the data behind one view of one carrier
type ResearchRequest struct {
	Carrier model.Carrier
	View    model.View

	// Prompt overrides the built-in prompt for the view
	Prompt string

	// Model overrides the configured model
	Model string

	MaxTokens int
}

// Config holds research provider configuration
type Config struct {
	// Provider name: "openai", "nvidia", "ollama", "file"
	Provider string

	// Model name (provider-specific)
	Model string

	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens int

	// FixtureDir is where the file provider reads research documents
	FixtureDir string

	// Rate limiting of upstream calls
	RequestsPerSecond float64
	BurstSize         int

	// Retries after a failed call
	Retries int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "file",
		Timeout:           60,
		MaxTokens:         2048,
		FixtureDir:        "research",
		RequestsPerSecond: 1,
		BurstSize:         2,
		Retries:           1,
	}
}
