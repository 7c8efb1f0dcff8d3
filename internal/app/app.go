// Package app wires the verifier and its dependencies from the environment
// for the command binaries.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amcodin/SmartScraper/internal/cache"
	"github.com/amcodin/SmartScraper/internal/config"
	"github.com/amcodin/SmartScraper/internal/fetch"
	"github.com/amcodin/SmartScraper/internal/llm"
	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/notify"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
	"github.com/amcodin/SmartScraper/internal/verifier"
)

const (
	defaultGeminiPrimary   = "gemini-2.0-flash"
	defaultGeminiSecondary = "gemini-2.0-flash-lite"
)

// ModelConfigs returns the primary and secondary model settings. An empty
// secondary model name means single-model verification.
func ModelConfigs() (llm.Config, llm.Config) {
	provider := strings.ToLower(config.String("LLM_PROVIDER", llm.ProviderGemini))
	temperature := float32(config.Float("LLM_TEMPERATURE", 0.2))
	base := llm.Config{
		Provider:    provider,
		Timeout:     config.Seconds("LLM_TIMEOUT_SECONDS", 60*time.Second),
		Temperature: &temperature,
		MaxTokens:   config.Int("LLM_MAX_TOKENS", 400),
	}
	primaryDefault, secondaryDefault := defaultGeminiPrimary, defaultGeminiSecondary
	if provider == llm.ProviderOpenAI {
		base.APIKey = config.String("OPENAI_API_KEY", "")
		base.BaseURL = config.String("OPENAI_BASE_URL", "")
		primaryDefault, secondaryDefault = "", ""
	} else {
		base.APIKey = config.String("GEMINI_API_KEY", "")
		base.BaseURL = config.String("GEMINI_BASE_URL", "")
	}

	primary, secondary := base, base
	primary.Model = config.String("PRIMARY_MODEL", primaryDefault)
	secondary.Model = config.String("SECONDARY_MODEL", secondaryDefault)
	return primary, secondary
}

// Options control which optional pieces NewVerifier wires.
type Options struct {
	Store    *sqlite.Store
	NoCache  bool
	NoFetch  bool
	NoNotify bool
}

// Verifier is a wired service plus the resources to release on shutdown.
type Verifier struct {
	Service *verifier.Service
	Cache   *cache.VerificationCache
}

// Close releases the cache connection.
func (v *Verifier) Close() error {
	if v == nil {
		return nil
	}
	return v.Cache.Close()
}

// NewVerifier builds the verifier from the environment.
func NewVerifier(ctx context.Context, opts Options) (*Verifier, error) {
	primaryCfg, secondaryCfg := ModelConfigs()
	primary, err := llm.New(ctx, primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("primary model: %w", err)
	}
	var secondary llm.Completer
	if secondaryCfg.Model != "" {
		secondary, err = llm.New(ctx, secondaryCfg)
		if err != nil {
			return nil, fmt.Errorf("secondary model: %w", err)
		}
	}

	cfg := verifier.Config{
		Primary:     primary,
		Secondary:   secondary,
		Retries:     config.Int("VERIFY_RETRIES", verifier.DefaultRetries),
		BackoffBase: config.Seconds("VERIFY_BACKOFF_SECONDS", verifier.DefaultBackoffBase),
		BackoffMax:  config.Seconds("VERIFY_BACKOFF_MAX_SECONDS", verifier.DefaultBackoffMax),
	}
	if !opts.NoFetch && config.Bool("FETCH_PAGES", true) {
		cfg.Fetcher = fetch.New(fetch.Config{
			Timeout:      config.Seconds("FETCH_TIMEOUT_SECONDS", 20*time.Second),
			Retries:      config.Int("FETCH_RETRIES", 3),
			MaxTextBytes: config.Int("FETCH_MAX_TEXT_BYTES", fetch.DefaultMaxTextBytes),
		})
	}

	out := &Verifier{}
	if addr := config.String("REDIS_ADDR", ""); addr != "" && !opts.NoCache {
		c, err := cache.NewRedisVerificationCache(
			addr,
			config.String("REDIS_PASSWORD", ""),
			config.Int("REDIS_DB", 0),
			config.Seconds("CACHE_TTL_SECONDS", cache.DefaultTTL),
			config.String("CACHE_PREFIX", cache.DefaultPrefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if err := c.Ping(ctx); err != nil {
			logging.Warnf("[app] redis unavailable at %s, caching disabled: %v", addr, err)
			_ = c.Close()
		} else {
			out.Cache = c
			cfg.Cache = c
		}
	}
	if opts.Store != nil {
		cfg.Recorder = opts.Store
	}
	if !opts.NoNotify {
		emailCfg := notify.EmailConfigFromEnv()
		if emailCfg.Enabled {
			cfg.Notifier = notify.NewPriceChangeNotifier(notify.NewEmailSender(emailCfg))
		}
	}

	svc, err := verifier.NewService(cfg)
	if err != nil {
		return nil, err
	}
	out.Service = svc
	logging.Infof("[app] verifier ready primary=%s secondary=%s fetch=%t cache=%t record=%t notify=%t",
		primary.Model(), modelName(secondary), cfg.Fetcher != nil, cfg.Cache != nil, cfg.Recorder != nil, cfg.Notifier != nil)
	return out, nil
}

// OpenStore opens SQLITE_PATH and brings its schema up to date.
func OpenStore(ctx context.Context) (*sqlite.Store, error) {
	store, err := sqlite.Open(config.String("SQLITE_PATH", ""))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s: %w", store.Path(), err)
	}
	return store, nil
}

func modelName(c llm.Completer) string {
	if c == nil {
		return "none"
	}
	return c.Model()
}
