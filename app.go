package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"memoria_chatbot/internal/config"
	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/nodes"
	"memoria_chatbot/internal/services"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"
	"memoria_chatbot/src"
	"memoria_chatbot/src/logger"

	"github.com/rs/zerolog"
)

// App holds everything a command needs
type App struct {
	Config   *src.Config
	Persona  *config.YAMLConfig
	Log      zerolog.Logger
	Backend  storage.Backend
	Files    *storage.FileBackend // nil unless memories live in files
	Stores   map[pkg.Category]*storage.Store
	Resolver *core.Resolver

	closers []func() error
}

type appOptions struct {
	envFile    string
	configFile string
}

func newApp(ctx context.Context, opts appOptions) (*App, error) {
	if opts.envFile != "" {
		src.LoadEnvFile(opts.envFile)
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.configFile != "" {
		cfg.PersonaFile = opts.configFile
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return nil, err
	}
	log := logger.Component("app")

	persona, err := config.LoadConfig(cfg.PersonaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.PersonaFile, err)
	}

	app := &App{Config: cfg, Persona: persona, Log: log}

	switch strings.ToLower(cfg.MemoryConfig.Backend) {
	case "redis":
		rb, err := storage.NewRedisBackend(ctx, cfg.MemoryConfig.RedisURL)
		if err != nil {
			return nil, err
		}
		app.Backend = rb
		app.closers = append(app.closers, rb.Close)
	default:
		app.Files = storage.NewFileBackend(cfg.MemoryConfig.Dir, persona.Memory.Files)
		app.Backend = app.Files
	}

	categories := append(append([]pkg.Category{}, pkg.AnswerCategories...), pkg.CategoryError)
	app.Stores, err = storage.OpenAll(ctx, app.Backend, categories...)
	if err != nil {
		app.Close()
		return nil, err
	}

	wiki := services.NewWikipedia(services.WikipediaConfig{
		Language:   cfg.WikiConfig.Language,
		Endpoint:   cfg.WikiConfig.Endpoint,
		Sentences:  cfg.WikiConfig.Sentences,
		Timeout:    cfg.WikiConfig.Timeout,
		MaxRetries: cfg.WikiConfig.MaxRetries,
		UserAgent:  cfg.WikiConfig.UserAgent,
	}, logger.Logger)

	app.Resolver, err = nodes.NewResolver(ctx, nodes.Dependencies{
		Config: config.BuildCoreConfig(persona),
		Stores: app.Stores,
		Source: wiki,
		Log:    logger.Logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	log.Info().
		Str("backend", app.Backend.Name()).
		Str("wikipedia", wiki.Endpoint()).
		Int("slang", app.Stores[pkg.CategorySlang].Len()).
		Int("academic", app.Stores[pkg.CategoryAcademic].Len()).
		Msg("Memories loaded")

	return app, nil
}

// StoreList returns the stores in category order
func (a *App) StoreList() []*storage.Store {
	out := make([]*storage.Store, 0, len(a.Stores))
	for _, c := range []pkg.Category{pkg.CategorySlang, pkg.CategoryAcademic, pkg.CategoryError} {
		if s, ok := a.Stores[c]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
