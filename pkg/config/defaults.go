package config

import "time"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	SearchProviderDuckDuckGo = "duckduckgo"
	SearchProviderArxiv      = "arxiv"
)

// DefaultGeminiModels is the fallback queue used when none is configured.
// Consulted top to bottom.
var DefaultGeminiModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
}

var DefaultOpenAIModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
}

var DefaultSearchSuffixes = []string{
	"market size",
	"clinical trial",
	"competitors",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if len(cfg.Models) == 0 {
		if cfg.Provider == ProviderOpenAI {
			cfg.Models = append([]string(nil), DefaultOpenAIModels...)
		} else {
			cfg.Models = append([]string(nil), DefaultGeminiModels...)
		}
	}

	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.2
	}
	if cfg.Generation.RetryAttempts == 0 {
		cfg.Generation.RetryAttempts = 3
	}
	if cfg.Generation.RetryBackoff == 0 {
		cfg.Generation.RetryBackoff = time.Second
	}
	if cfg.Generation.QuotaWait == 0 {
		cfg.Generation.QuotaWait = 2 * time.Second
	}

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = SearchProviderDuckDuckGo
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 3
	}
	if cfg.Search.Pause == 0 {
		cfg.Search.Pause = time.Second
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 15 * time.Second
	}
	if cfg.Search.KeywordRunes == 0 {
		cfg.Search.KeywordRunes = 20
	}
	if len(cfg.Search.Suffixes) == 0 {
		cfg.Search.Suffixes = append([]string(nil), DefaultSearchSuffixes...)
	}

	if cfg.Export.SlideLevel == 0 {
		cfg.Export.SlideLevel = 2
	}
	if cfg.Export.SlideBulletCap == 0 {
		cfg.Export.SlideBulletCap = 6
	}
	if cfg.Export.SlideCharBudget == 0 {
		cfg.Export.SlideCharBudget = 900
	}
}
