package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kortex-labs/memory-enforce/internal/watcher"
)

type IndexConfig struct {
	Enabled         bool     `yaml:"enabled"`
	DBPath          string   `yaml:"db_path"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	MaxQueueSize    int      `yaml:"max_queue_size"`
	WorkerCount     int      `yaml:"worker_count"`
	RateLimit       int      `yaml:"rate_limit"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type MemoryConfig struct {
	Dir            string `yaml:"dir"`
	ConventionsMD  string `yaml:"conventions_file"`
	SymbolIndexMD  string `yaml:"symbol_index_file"`
	DBPath         string `yaml:"db_path"`
	QualityMinimum float64 `yaml:"quality_minimum"`
}

type OrchestrationConfig struct {
	PersonasDir      string  `yaml:"personas_dir"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

type Config struct {
	LogLevel      string                `yaml:"log_level"`
	LogFormat     string                `yaml:"log_format"`
	Memory        MemoryConfig          `yaml:"memory"`
	Index         IndexConfig           `yaml:"index"`
	Orchestration OrchestrationConfig   `yaml:"orchestration"`
	Watcher       watcher.WatcherConfig `yaml:"watcher"`
}

// Home returns the base directory for persistent state, honoring
// MEMORY_ENFORCE_HOME for tests and sandboxed runs.
func Home() string {
	if dir := os.Getenv("MEMORY_ENFORCE_HOME"); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".memory-enforce")
}

func Default() *Config {
	base := Home()

	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Memory: MemoryConfig{
			Dir:            base,
			ConventionsMD:  filepath.Join(base, "conventions.md"),
			SymbolIndexMD:  filepath.Join(base, "symbol-index.md"),
			DBPath:         filepath.Join(base, "memory.db"),
			QualityMinimum: 0.8,
		},
		Index: IndexConfig{
			Enabled:      true,
			DBPath:       filepath.Join(base, "index.db"),
			MaxFileSize:  10 * 1024 * 1024,
			MaxQueueSize: 1000,
			WorkerCount:  2,
			RateLimit:    100,
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/.git/**",
				"**/vendor/**",
				"**/__pycache__/**",
				"**/target/**",
				"**/build/**",
				"**/dist/**",
			},
		},
		Orchestration: OrchestrationConfig{
			PersonasDir:      filepath.Join(base, "personas"),
			QualityThreshold: 0.8,
		},
		Watcher: watcher.DefaultWatcherConfig(),
	}
}

// Load reads config.yaml from the state directory when present and
// overlays it on the defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(Home(), "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if lvl := os.Getenv("MEMORY_ENFORCE_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}

	return cfg, nil
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Memory.Dir, c.Orchestration.PersonasDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
