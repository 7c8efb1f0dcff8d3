package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini API.
type GeminiClient struct {
	api   *genai.Client
	cfg   Config
	model string
}

// NewGemini creates a Gemini client. Sampling defaults follow the extraction
// service: temperature 0.2, top-p 0.2, top-k 40, 400 output tokens.
func NewGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: gemini API key is required")
	}
	if cfg.Temperature == nil {
		cfg.Temperature = genai.Ptr[float32](0.2)
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.2
	}
	if cfg.TopK == 0 {
		cfg.TopK = 40
	}
	cfg = withDefaults(cfg, defaultGeminiModel)

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}
	return &GeminiClient{api: client, cfg: cfg, model: cfg.Model}, nil
}

func (c *GeminiClient) Model() string { return c.model }

// Complete sends the prompt and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	if c == nil || c.api == nil {
		return nil, fmt.Errorf("llm: client is nil")
	}
	if strings.TrimSpace(p.User) == "" {
		return nil, fmt.Errorf("llm: prompt must be provided")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     c.cfg.Temperature,
		TopP:            genai.Ptr(c.cfg.TopP),
		TopK:            genai.Ptr(c.cfg.TopK),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}
	if p.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		}
	}
	if p.URLContext {
		config.Tools = []*genai.Tool{{URLContext: &genai.URLContext{}}}
	} else {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = p.Schema
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: p.User}},
		Role:  "user",
	}}

	start := time.Now()
	resp, err := c.api.Models.GenerateContent(ctxWithTimeout, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("llm: gemini API call failed: %w", err)
	}

	out := &Completion{
		Text:     strings.TrimSpace(resp.Text()),
		Model:    c.model,
		Duration: time.Since(start),
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	if out.Text == "" {
		return nil, fmt.Errorf("llm: empty response from %s", c.model)
	}
	return out, nil
}
