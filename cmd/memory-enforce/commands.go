package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kortex-labs/memory-enforce/internal/config"
	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/logger"
	"github.com/kortex-labs/memory-enforce/internal/mcp"
	"github.com/kortex-labs/memory-enforce/internal/memory"
	"github.com/kortex-labs/memory-enforce/internal/orchestrate"
)

func newRecordCmd() *cobra.Command {
	var (
		decision     string
		rationale    string
		alternatives string
		scope        string
		category     string
		decidedOn    string
		tags         []string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "record <topic>",
		Short: "Record a decision into institutional memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.exec(cmd.Context(), "memory_record", map[string]interface{}{
				"topic":        args[0],
				"decision":     decision,
				"rationale":    rationale,
				"alternatives": alternatives,
				"scope":        scope,
				"category":     category,
				"decided_on":   decidedOn,
				"tags":         tags,
				"force":        force,
			})
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}

			if m, ok := result.(map[string]interface{}); ok && m["recorded"] == false {
				return fmt.Errorf("not recorded: %v", m["reason"])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "what was decided")
	cmd.Flags().StringVar(&rationale, "rationale", "", "why it was decided")
	cmd.Flags().StringVar(&alternatives, "alternatives", "", "what else was considered")
	cmd.Flags().StringVar(&scope, "scope", "", "where the decision applies")
	cmd.Flags().StringVar(&category, "category", "", "core, architecture, decisions, context, or general")
	cmd.Flags().StringVar(&decidedOn, "decided-on", "", "decision date, YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "record even when the quality score is below threshold")
	cmd.MarkFlagRequired("decision")

	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		category string
		limit    int
		symbols  bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search recorded decisions or indexed symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.exec(cmd.Context(), "memory_search", map[string]interface{}{
				"query":    strings.Join(args, " "),
				"category": category,
				"limit":    limit,
				"symbols":  symbols,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(result)
			}
			printSearchText(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "restrict to one category")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	cmd.Flags().BoolVar(&symbols, "symbols", false, "search the symbol index instead of decisions")
	cmd.Flags().BoolVar(&jsonOut, "json", true, "print the full result as JSON")

	return cmd
}

func newCoreCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "core",
		Short: "Show the core convention set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.run(cmd.Context(), "memory_core", map[string]interface{}{
				"limit": limit,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "cap on the frequently used list")

	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Quality-score every recorded decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.exec(cmd.Context(), "memory_validate", struct{}{})
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}

			if m, ok := result.(map[string]interface{}); ok {
				if failing, _ := m["failing"].(int); failing > 0 {
					return fmt.Errorf("%d decisions below quality threshold", failing)
				}
			}
			return nil
		},
	}
}

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Detect contradictions between recorded decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.run(cmd.Context(), "memory_conflicts", struct{}{})
		},
	}
}

func newIndexCmd() *cobra.Command {
	var (
		watch       bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index the codebase and regenerate symbol-index.md",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag, func(cfg *config.Config) {
				if concurrency > 0 {
					cfg.Index.WorkerCount = concurrency
				}
			})
			if err != nil {
				return err
			}
			defer app.Close()

			path := app.deps.Root
			if len(args) > 0 {
				path = args[0]
			}

			if err := app.run(cmd.Context(), "index_codebase", map[string]interface{}{
				"path": path,
			}); err != nil {
				return err
			}

			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := app.startWatcher(ctx, path)
			if err != nil {
				return err
			}
			defer w.Stop()

			logger.Info("watching for changes, Ctrl-C to stop", "path", path)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-index on file changes")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "index worker count (defaults to the configured value)")

	return cmd
}

func newDriftCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Check symbol-index.md against the files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.exec(cmd.Context(), "index_drift", map[string]interface{}{
				"fix": fix,
			})
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}

			if m, ok := result.(map[string]interface{}); ok {
				fresh, _ := m["fresh"].(bool)
				fixed, _ := m["fixed"].(bool)
				if !fresh && !fixed {
					return fmt.Errorf("symbol index has drifted, run with --fix or re-run index")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "re-index drifted files and rewrite the symbol index")

	return cmd
}

func newOrchestrateCmd() *cobra.Command {
	var (
		pattern      string
		personasDir  string
		personas     []string
		constraints  []string
		requirements []string
		criteria     string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "orchestrate <objective>",
		Short: "Run a multi-persona consultation over a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag, func(cfg *config.Config) {
				if personasDir != "" {
					cfg.Orchestration.PersonasDir = personasDir
				}
			})
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.exec(cmd.Context(), "orchestrate", map[string]interface{}{
				"objective":              strings.Join(args, " "),
				"pattern":                pattern,
				"personas":               personas,
				"constraints":            constraints,
				"technical_requirements": requirements,
				"success_criteria":       criteria,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(result)
			}
			printOrchestrateText(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "force sequential, mapreduce, consensus, or hierarchical")
	cmd.Flags().StringVar(&personasDir, "personas", "", "directory of persona JSON files")
	cmd.Flags().StringSliceVar(&personas, "persona", nil, "force the consulted personas by name")
	cmd.Flags().StringArrayVar(&constraints, "constraint", nil, "constraint on the task (repeatable)")
	cmd.Flags().StringArrayVar(&requirements, "require", nil, "technical requirement (repeatable)")
	cmd.Flags().StringVar(&criteria, "criteria", "", "success criteria for validation")
	cmd.Flags().BoolVar(&jsonOut, "json", true, "print the full result as JSON")

	return cmd
}

func printSearchText(result interface{}) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return
	}

	if symbols, ok := m["symbols"].([]*index.Symbol); ok {
		for _, s := range symbols {
			fmt.Printf("%-6s %s line %d\n", s.Kind, s.Name, s.LineStart)
		}
		return
	}

	if results, ok := m["results"].([]*memory.SearchResult); ok {
		for _, r := range results {
			fmt.Printf("%-12s %s (score %.1f)\n", r.Category, r.Topic, r.Score)
		}
	}
}

func printOrchestrateText(result interface{}) {
	r, ok := result.(*orchestrate.Result)
	if !ok {
		return
	}

	fmt.Printf("pattern: %s (%s complexity)\n", r.Pattern, r.Analysis.ComplexityLevel)
	for _, resp := range r.Responses {
		fmt.Printf("  %s: %s\n", resp.Agent, resp.Recommendation)
	}
	fmt.Println("recommendations:")
	for _, rec := range r.Synthesis.Recommendations {
		fmt.Println("  -", rec)
	}
	fmt.Printf("confidence %.2f, quality %s\n", r.Synthesis.Confidence, r.Quality.Status)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report store, index, and orchestration health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.run(cmd.Context(), "system_status", struct{}{})
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootFlag)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if app.cfg.Watcher.Enabled {
				w, err := app.startWatcher(ctx, app.deps.Root)
				if err != nil {
					logger.Warn("file watcher unavailable", "error", err)
				} else {
					defer w.Stop()
				}
			}

			server := mcp.NewServer(app.registry)
			if err := server.ServeStdio(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
}
