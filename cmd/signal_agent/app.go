package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/signal-outreach/internal/config"
	"github.com/jonathan/signal-outreach/internal/enrichment"
	"github.com/jonathan/signal-outreach/internal/landing"
	"github.com/jonathan/signal-outreach/internal/llm"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/outreach"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/sandbox"
	"github.com/jonathan/signal-outreach/internal/store"
)

// app holds the collaborators shared by the commands
type app struct {
	cfg     config.Config
	log     logger.Logger
	kv      store.KV
	signals *store.SignalStore
	llm     llm.Client
}

// loadConfig reads the config file and environment, then applies root flags
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newApp loads configuration, builds the logger and opens the store
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Verbose})
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	if cfg.StoreBackend == store.BackendMemory {
		log.Warn("Using the in-memory store; records are lost when the process exits")
	}

	return &app{cfg: cfg, log: log, kv: kv, signals: store.NewSignalStore(kv)}, nil
}

func storeConfig(cfg config.Config) store.Config {
	return store.Config{
		Backend: cfg.StoreBackend,
		Redis: store.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
		},
		DatabaseURL: cfg.DatabaseURL,
	}
}

// llmConfig returns the provider defaults with the configured model override
func llmConfig(cfg config.Config) *llm.Config {
	c := llm.ConfigFor(cfg.LLMProvider)
	if cfg.Model != "" {
		c = c.WithModel(llm.TierStandard, cfg.Model)
	}
	return c
}

// landingOptions maps the poll settings onto the landing generator
func landingOptions(cfg config.Config) landing.Options {
	opts := landing.DefaultOptions()
	if cfg.PollInterval > 0 {
		opts.PollInterval = cfg.PollInterval
	}
	if cfg.PollTimeout > 0 {
		opts.PollTimeout = cfg.PollTimeout
	}
	return opts
}

// jwtConfig builds the admin token config; the file's jwt_secret counts as
// JWT_SECRET when the environment does not set one.
func jwtConfig(cfg config.Config) (*config.JWTConfig, error) {
	return config.NewJWTConfig(func(key string) string {
		if key == "JWT_SECRET" && cfg.JWTSecret != "" {
			return cfg.JWTSecret
		}
		return os.Getenv(key)
	})
}

// buildPipeline builds the orchestrator. Landing pages are skipped without a
// sandbox URL and webhooks are unsupported without a signals API URL.
func (a *app) buildPipeline(ctx context.Context, onProgress pipeline.ProgressCallback) (*pipeline.Orchestrator, error) {
	apiKey := a.cfg.LLMAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("an API key for llm provider %q is required (GEMINI_API_KEY or ANTHROPIC_API_KEY)", a.cfg.LLMProvider)
	}

	client, err := llm.NewClient(ctx, llmConfig(a.cfg), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client

	deps := pipeline.Deps{
		Outreach:   outreach.NewGenerator(client, a.log.With(logger.String("component", "outreach"))),
		Store:      a.signals,
		Logger:     a.log.With(logger.String("component", "pipeline")),
		OnProgress: onProgress,
	}

	if a.cfg.SandboxAPIURL != "" {
		provider, err := sandbox.NewHTTPProvider(a.cfg.SandboxAPIURL, a.cfg.SandboxAPIKey)
		if err != nil {
			return nil, err
		}
		deps.Landing = landing.NewGenerator(provider, landingOptions(a.cfg), a.log.With(logger.String("component", "landing")))
	} else {
		a.log.Info("SANDBOX_API_URL not set; landing pages are disabled")
	}

	if a.cfg.SignalsAPIURL != "" {
		source, err := enrichment.NewAPIClient(a.cfg.SignalsAPIURL, a.cfg.SignalsAPIKey, 0)
		if err != nil {
			return nil, err
		}
		deps.Enricher = enrichment.NewClient(source, a.log.With(logger.String("component", "enrichment")))
	} else {
		a.log.Info("SIGNALS_API_URL not set; webhook payloads resolve to nothing")
	}

	a.log.Info("Pipeline ready",
		logger.String("llm_provider", a.cfg.LLMProvider),
		logger.String("model", client.GetModel(llm.TierStandard)),
		logger.String("store", a.cfg.StoreBackend),
		logger.Bool("landing_pages", deps.Landing != nil),
	)
	return pipeline.New(deps), nil
}

// Close releases the store and LLM client
func (a *app) Close() {
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			a.log.Warn("Failed to close LLM client", logger.Error(err))
		}
	}
	if err := a.kv.Close(); err != nil {
		a.log.Warn("Failed to close store", logger.Error(err))
	}
	_ = a.log.Sync()
}
