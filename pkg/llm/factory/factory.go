package factory

import (
	"context"
	"fmt"
	"time"

	"acquisition-arena-be/pkg/llm"
	"acquisition-arena-be/pkg/llm/gemini"
	"acquisition-arena-be/pkg/llm/ollama"
	"acquisition-arena-be/pkg/llm/openai"
)

type Config struct {
	Provider    string // "openai", "gemini", "ollama"
	Model       string
	BaseURL     string
	ApiKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		p := openai.NewOpenAIProvider(cfg.BaseURL, cfg.ApiKey, cfg.Model, cfg.Timeout)
		applyDefaults(&p.Defaults, cfg)
		return p, nil
	case "gemini":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		p, err := gemini.NewGeminiProvider(ctx, cfg.ApiKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		applyDefaults(&p.Defaults, cfg)
		return p, nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		p := ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Timeout)
		applyDefaults(&p.Defaults, cfg)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func applyDefaults(o *llm.Options, cfg Config) {
	if cfg.Temperature > 0 {
		o.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		o.MaxTokens = cfg.MaxTokens
	}
}
