package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/pipeline"
)

type Config struct {
	// Run options
	ChapterCount   int           `env:"CHAPTER_COUNT" envDefault:"10"`
	ChapterMode    string        `env:"CHAPTER_MODE" envDefault:"general"`
	BudgetLimit    int           `env:"BUDGET_LIMIT" envDefault:"24000"`
	MinGap         time.Duration `env:"MIN_GAP" envDefault:"30s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"2"`
	MaxTitleWords  int           `env:"MAX_TITLE_WORDS" envDefault:"4"`
	SegmentTimeout time.Duration `env:"SEGMENT_TIMEOUT" envDefault:"2m"`
	RunTimeout     time.Duration `env:"RUN_TIMEOUT" envDefault:"10m"`

	LLM LLMConfig
	STT STTConfig
	S3  S3Config

	OutputDir string `env:"OUTPUT_DIR" envDefault:"./chapters"`

	// Optional integrations; empty disables them.
	DatabaseURL     string `env:"DATABASE_URL"`
	MQTTBrokerURL   string `env:"MQTT_BROKER_URL"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"chaptr"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"chaptr"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`

	WatchDir     string `env:"WATCH_DIR"`
	WatchWorkers int    `env:"WATCH_WORKERS" envDefault:"2"`
	MetricsFile  string `env:"METRICS_FILE"`
	Optimize     bool   `env:"OPTIMIZE" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LLMConfig selects the segmentation provider.
type LLMConfig struct {
	Provider    string  `env:"LLM_PROVIDER" envDefault:"openai"`
	Model       string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	APIKey      string  `env:"LLM_API_KEY"`
	BaseURL     string  `env:"LLM_BASE_URL"`
	Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.1"`
	MaxTokens   int     `env:"LLM_MAX_TOKENS" envDefault:"2000"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

// Key returns LLM_API_KEY, or the vendor variable matching Provider.
func (c LLMConfig) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if strings.EqualFold(c.Provider, "anthropic") {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// Enabled reports whether a provider can be reached. Self-hosted
// OpenAI-compatible servers need only a base URL.
func (c LLMConfig) Enabled() bool {
	return c.Key() != "" || c.BaseURL != ""
}

// STTConfig selects the speech-to-text provider for audio input.
type STTConfig struct {
	Provider           string        `env:"STT_PROVIDER" envDefault:"whisper"`
	WhisperURL         string        `env:"WHISPER_URL"`
	WhisperModel       string        `env:"WHISPER_MODEL"`
	Timeout            time.Duration `env:"STT_TIMEOUT" envDefault:"5m"`
	Language           string        `env:"STT_LANGUAGE" envDefault:"en"`
	DeepInfraAPIKey    string        `env:"DEEPINFRA_API_KEY"`
	DeepInfraModel     string        `env:"DEEPINFRA_MODEL" envDefault:"openai/whisper-large-v3-turbo"`
	ElevenLabsAPIKey   string        `env:"ELEVENLABS_API_KEY"`
	ElevenLabsModel    string        `env:"ELEVENLABS_MODEL" envDefault:"scribe_v1"`
	ElevenLabsKeyterms string        `env:"ELEVENLABS_KEYTERMS"`
}

// Enabled reports whether the selected provider has what it needs.
func (c STTConfig) Enabled() bool {
	switch strings.ToLower(c.Provider) {
	case "deepinfra":
		return c.DeepInfraAPIKey != ""
	case "elevenlabs":
		return c.ElevenLabsAPIKey != ""
	default:
		return c.WhisperURL != ""
	}
}

// S3Config configures the optional object-store export.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Prefix    string `env:"S3_PREFIX"`
	// LocalCache keeps a copy under OUTPUT_DIR and treats S3 as backup.
	LocalCache bool `env:"S3_LOCAL_CACHE" envDefault:"true"`
}

// Enabled reports whether bucket and credentials are all set.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	LogLevel      string
	OutputDir     string
	DatabaseURL   string
	MQTTBrokerURL string
	WatchDir      string
	ChapterCount  int
	ChapterMode   string
	LLMProvider   string
	LLMModel      string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MQTTBrokerURL != "" {
		cfg.MQTTBrokerURL = overrides.MQTTBrokerURL
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}
	if overrides.ChapterCount != 0 {
		cfg.ChapterCount = overrides.ChapterCount
	}
	if overrides.ChapterMode != "" {
		cfg.ChapterMode = overrides.ChapterMode
	}
	if overrides.LLMProvider != "" {
		cfg.LLM.Provider = overrides.LLMProvider
	}
	if overrides.LLMModel != "" {
		cfg.LLM.Model = overrides.LLMModel
	}

	if _, err := cfg.RunConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunConfig projects the run options into the value passed to each run.
func (c *Config) RunConfig() (pipeline.RunConfig, error) {
	mode, err := chapters.ParseMode(c.ChapterMode)
	if err != nil {
		return pipeline.RunConfig{}, err
	}
	rc := pipeline.RunConfig{
		ChapterCount:   c.ChapterCount,
		Mode:           mode,
		BudgetLimit:    c.BudgetLimit,
		MinGap:         c.MinGap,
		MaxRetries:     c.MaxRetries,
		MaxTitleWords:  c.MaxTitleWords,
		SegmentTimeout: c.SegmentTimeout,
		RunTimeout:     c.RunTimeout,
	}
	if err := rc.Validate(); err != nil {
		return pipeline.RunConfig{}, fmt.Errorf("config: %w", err)
	}
	return rc, nil
}
