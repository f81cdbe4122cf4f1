package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/eduforge/internal/config"
	"github.com/abhisek/eduforge/internal/generator"
	"github.com/abhisek/eduforge/internal/llm"
	"github.com/abhisek/eduforge/internal/logging"
	"github.com/abhisek/eduforge/internal/observability"
	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/reviewer"
	"github.com/abhisek/eduforge/internal/store"
)

// loadSettings reads the config file and environment, then applies the
// global flags on top.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if prov, _ := cmd.Flags().GetString("provider"); prov != "" {
		cfg.LLM.Provider = prov
	}
	return cfg, nil
}

// openStore opens the database named by cfg, falling back to the default
// XDG location.
func openStore(cfg config.Config) (*store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// runtime is everything a pipeline-running command needs.
type runtime struct {
	cfg      config.Config
	log      *logging.Logger
	store    *store.Store
	provider llm.Provider
	metrics  *observability.Metrics
	recorder *pipeline.Recorder

	shutdownTracing func(context.Context) error
}

// newRuntime wires config, logging, tracing, storage, the provider and the
// pipeline. A missing API key fails here, before any command work starts.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	cfg.Trace.Version = version
	shutdown, err := observability.InitTracing(ctx, log, cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
	if err != nil {
		st.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	metrics := observability.DefaultMetrics()
	p := pipeline.New(
		generator.New(provider, generator.Config{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}),
		reviewer.New(provider, reviewer.Config{
			MaxTokens:   reviewer.DefaultConfig().MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(metrics),
	)

	log.Debug("runtime ready",
		"provider", cfg.LLM.Provider,
		"model", provider.ModelID(),
		"db", cfg.Store.Path,
	)

	return &runtime{
		cfg:             cfg,
		log:             log,
		store:           st,
		provider:        provider,
		metrics:         metrics,
		recorder:        &pipeline.Recorder{Pipeline: p, Repo: st.RunRepo(), Log: log},
		shutdownTracing: shutdown,
	}, nil
}

// Close flushes traces and logs and closes the database.
func (r *runtime) Close() error {
	err := errors.Join(
		r.shutdownTracing(context.Background()),
		r.store.Close(),
	)
	r.log.Sync()
	return err
}

// statusLine names the active provider and model.
func (r *runtime) statusLine() string {
	return r.cfg.LLM.Provider + " · " + r.provider.ModelID()
}
