package model

import "time"

// Config is the complete vibecheck configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Research    ResearchConfig    `yaml:"research" mapstructure:"research"`
	Carriers    CarriersConfig    `yaml:"carriers" mapstructure:"carriers"`
	Trend       TrendConfig       `yaml:"trend" mapstructure:"trend"`
	Views       ViewsConfig       `yaml:"views" mapstructure:"views"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" mapstructure:"generate_timeout"`
	AllowOrigin     string        `yaml:"allow_origin" mapstructure:"allow_origin"`
}

// CacheConfig selects and tunes the view store
type CacheConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend"` // disk, memory, layered, sqlite, postgres
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"` // 0 keeps entries until cleared
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DSN       string        `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// ResearchConfig configures the upstream research provider
type ResearchConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, nvidia, ollama, file
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	FixtureDir        string  `yaml:"fixture_dir,omitempty" mapstructure:"fixture_dir"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CarriersConfig lists the compared carriers and the headline one
type CarriersConfig struct {
	Primary string    `yaml:"primary" mapstructure:"primary"`
	List    []Carrier `yaml:"list" mapstructure:"list"`
}

// TrendConfig controls the display trend fields
type TrendConfig struct {
	Period       string `yaml:"period" mapstructure:"period"`
	TrackHistory bool   `yaml:"track_history" mapstructure:"track_history"`
	GapDays      int    `yaml:"gap_days" mapstructure:"gap_days"`
}

// ViewsConfig tunes the assembled documents
type ViewsConfig struct {
	TopTopicsLimit int `yaml:"top_topics_limit" mapstructure:"top_topics_limit"`
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// ConcurrencyConfig sizes the carrier worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5001",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			GenerateTimeout: 5 * time.Minute,
			AllowOrigin:     "*",
		},
		Cache: CacheConfig{
			Backend:   "disk",
			Dir:       ".vibecheck",
			MemoryTTL: 10 * time.Minute,
		},
		Research: ResearchConfig{
			Provider:          "file",
			Model:             "gpt-4o-mini",
			Timeout:           60,
			MaxTokens:         2048,
			FixtureDir:        "research",
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Carriers: CarriersConfig{
			Primary: "tmobile",
			List:    DefaultCarriers(),
		},
		Trend: TrendConfig{
			Period:       DefaultTrendPeriod,
			TrackHistory: true,
			GapDays:      5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 3,
		},
	}
}
