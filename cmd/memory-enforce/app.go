package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kortex-labs/memory-enforce/internal/config"
	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/logger"
	"github.com/kortex-labs/memory-enforce/internal/memory"
	"github.com/kortex-labs/memory-enforce/internal/orchestrate"
	"github.com/kortex-labs/memory-enforce/internal/tools"
	"github.com/kortex-labs/memory-enforce/internal/watcher"
)

// app holds the opened stores and the wired tool registry for one
// command invocation. Every subcommand goes through the same tool
// layer the MCP server exposes.
type app struct {
	cfg      *config.Config
	memory   *memory.Store
	index    *index.Store
	worker   *index.Worker
	registry *tools.Registry
	deps     *tools.Deps
}

func openApp(root string, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}

	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	memStore, err := memory.OpenStore(cfg.Memory.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	idxStore, err := index.NewStore(cfg.Index.DBPath)
	if err != nil {
		memStore.Close()
		return nil, fmt.Errorf("open index store: %w", err)
	}

	worker := index.NewWorker(idxStore, workerConfig(cfg.Index))
	worker.Start()

	engine := orchestrate.NewEngine(
		orchestrate.NewLoader(cfg.Orchestration.PersonasDir),
		orchestrate.TemplateConsultant{},
		orchestrate.DefaultQualityThresholds,
	)

	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	deps := &tools.Deps{
		Memory:      memStore,
		Conventions: cfg.Memory.ConventionsMD,
		SymbolIndex: cfg.Memory.SymbolIndexMD,
		Index:       idxStore,
		Worker:      worker,
		Root:        root,
		Excludes:    cfg.Index.ExcludePatterns,
		Engine:      engine,
		StartTime:   time.Now(),
	}

	registry, err := tools.DefaultRegistry(deps)
	if err != nil {
		worker.Stop()
		idxStore.Close()
		memStore.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		memory:   memStore,
		index:    idxStore,
		worker:   worker,
		registry: registry,
		deps:     deps,
	}, nil
}

func workerConfig(cfg config.IndexConfig) index.WorkerConfig {
	return index.WorkerConfig{
		WorkerCount:     cfg.WorkerCount,
		MaxQueueSize:    cfg.MaxQueueSize,
		RateLimit:       cfg.RateLimit,
		MaxFileSize:     cfg.MaxFileSize,
		ExcludePatterns: cfg.ExcludePatterns,
	}
}

func (a *app) Close() {
	a.worker.Stop()
	a.index.Close()
	a.memory.Close()
}

// exec runs a tool with JSON-encoded arguments, the same path an MCP
// client takes.
func (a *app) exec(ctx context.Context, tool string, args interface{}) (interface{}, error) {
	input, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return a.registry.Execute(ctx, tool, input)
}

// run executes a tool and prints its result as indented JSON.
func (a *app) run(ctx context.Context, tool string, args interface{}) error {
	result, err := a.exec(ctx, tool, args)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) startWatcher(ctx context.Context, root string) (*watcher.Watcher, error) {
	w, err := watcher.New(a.cfg.Watcher, a.worker, a.index)
	if err != nil {
		return nil, err
	}
	if err := w.AddRoot(root); err != nil {
		w.Stop()
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
