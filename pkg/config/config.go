package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server and CLI need. Credentials are only
// read from the environment and never written back to a file.
type Config struct {
	GoogleApiKey  string           `yaml:"-"`
	OpenAIApiKey  string           `yaml:"-"`
	Provider      string           `yaml:"provider"`
	OpenAIBaseURL string           `yaml:"openai_base_url"`
	Port          string           `yaml:"port"`
	Models        []string         `yaml:"models"`
	Generation    GenerationConfig `yaml:"generation"`
	Search        SearchConfig     `yaml:"search"`
	Export        ExportConfig     `yaml:"export"`
}

// GenerationConfig controls the calls made to the LLM backend.
type GenerationConfig struct {
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Stream          bool          `yaml:"stream"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	QuotaWait       time.Duration `yaml:"quota_wait"`
}

// SearchConfig controls the market-data lookups.
type SearchConfig struct {
	Disabled     bool          `yaml:"disabled"`
	Provider     string        `yaml:"provider"`
	BaseURL      string        `yaml:"base_url"`
	MaxResults   int           `yaml:"max_results"`
	Pause        time.Duration `yaml:"pause"`
	Timeout      time.Duration `yaml:"timeout"`
	KeywordRunes int           `yaml:"keyword_runes"`
	Suffixes     []string      `yaml:"suffixes"`
}

// ExportConfig controls the lossy Markdown to slide conversion.
type ExportConfig struct {
	SlideLevel      int `yaml:"slide_level"`
	SlideBulletCap  int `yaml:"slide_bullet_cap"`
	SlideCharBudget int `yaml:"slide_char_budget"`
}

// Load reads .env, then the optional YAML file named by SENSIGHT_CONFIG,
// then environment overrides, and finally fills in defaults.
func Load() (*Config, error) {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("SENSIGHT_CONFIG"); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadFile parses a YAML config file without applying env overrides or defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.GoogleApiKey = getEnv("GOOGLE_API_KEY", getEnv("GEMINI_API_KEY", ""))
	cfg.OpenAIApiKey = getEnv("OPENAI_API_KEY", "")
	cfg.Provider = getEnv("LLM_PROVIDER", cfg.Provider)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.Port = getEnv("PORT", cfg.Port)

	if models := getEnvAsList("MODELS"); len(models) > 0 {
		cfg.Models = models
	}

	cfg.Generation.Temperature = getEnvAsFloat("TEMPERATURE", cfg.Generation.Temperature)
	cfg.Generation.MaxOutputTokens = getEnvAsInt("MAX_OUTPUT_TOKENS", cfg.Generation.MaxOutputTokens)
	cfg.Generation.RetryAttempts = getEnvAsInt("RETRY_ATTEMPTS", cfg.Generation.RetryAttempts)

	cfg.Search.Provider = getEnv("SEARCH_PROVIDER", cfg.Search.Provider)
	cfg.Search.MaxResults = getEnvAsInt("SEARCH_MAX_RESULTS", cfg.Search.MaxResults)
	if os.Getenv("SEARCH_DISABLED") == "true" {
		cfg.Search.Disabled = true
	}
}

// APIKeyFor returns the configured credential for the active provider.
func (c *Config) APIKeyFor(provider string) string {
	if provider == ProviderOpenAI {
		return c.OpenAIApiKey
	}
	return c.GoogleApiKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 32)
	if err != nil {
		return defaultValue
	}
	return float32(value)
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
