package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/config"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/llm"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

// ollamaChatPath is Ollama's OpenAI-compatible chat endpoint.
const ollamaChatPath = "/v1/chat/completions"

// app is the wired search pipeline shared by serve, search and mcp.
type app struct {
	store   dataset.Store
	service *search.Service
}

func (a *app) Close() error { return a.store.Close() }

// openStore loads the configured dataset backend. The sqlite backend
// materialises the store on first start and reuses it afterwards.
func openStore(ctx context.Context, cfg config.Dataset, logger *slog.Logger) (dataset.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		s, err := dataset.OpenMemory(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		logger.Info("dataset loaded", "backend", cfg.Backend, "source", cfg.CSVPath)
		return s, nil
	case config.BackendSQLite, "":
		return dataset.OpenSQLite(ctx, dataset.SQLiteOptions{
			CSVPath: cfg.CSVPath,
			DBPath:  cfg.SQLitePath,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown dataset backend %q", cfg.Backend)
	}
}

// newCompleter resolves the configured provider. Both providers speak the
// OpenAI chat-completions protocol; they differ in URL and credentials.
func newCompleter(cfg config.LLM) (llm.Completer, error) {
	router := llm.NewRouter(map[string]llm.Completer{
		"openai": llm.NewOpenAIProvider(llm.OpenAIConfig{
			Provider:    "openai",
			URL:         cfg.URL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}),
	}, cfg.Provider)
	router.Register("ollama", llm.NewOpenAIProvider(llm.OpenAIConfig{
		Provider:    "ollama",
		URL:         strings.TrimRight(cfg.OllamaBaseURL, "/") + ollamaChatPath,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}))
	return router.Route()
}

// newApp wires store → completer → search service.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.Dataset, logger)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	meta := completer.ModelInfo()
	logger.Info("completion provider ready", "provider", meta.Provider, "model", meta.ID)

	return &app{
		store:   store,
		service: search.NewService(store, completer, search.WithLogger(logger)),
	}, nil
}

// newTokenIssuer returns nil when auth is disabled.
func newTokenIssuer(cfg config.Auth) (*pkgauth.TokenIssuer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return pkgauth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
}
