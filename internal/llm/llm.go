// Package llm wraps the hosted language-model APIs used for extraction:
// Gemini through google.golang.org/genai and any OpenAI-compatible endpoint
// through go-openai.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Prompt is a single-shot request.
type Prompt struct {
	System string
	User   string
	// Schema constrains structured output where the backend supports it.
	Schema *genai.Schema
	// URLContext lets the model fetch URLs named in the prompt itself
	// (Gemini only). Structured output is disabled when it is set.
	URLContext bool
}

// Completion is the model's answer and its token accounting.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Duration         time.Duration
}

// Completer is implemented by every backend.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)
	Model() string
}

// Config holds client settings.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	// Temperature is nil for the backend default; zero is a valid setting.
	Temperature *float32
	TopP        float32
	TopK        float32
	MaxTokens   int
}

// New builds the backend named by cfg.Provider (gemini when empty).
func New(ctx context.Context, cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func withDefaults(cfg Config, model string) Config {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.Temperature != nil && *cfg.Temperature < 0 {
		cfg.Temperature = genai.Ptr[float32](0)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return cfg
}
