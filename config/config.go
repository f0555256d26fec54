// Package config loads the process-wide static configuration: the worker
// hierarchy, capability binding references, per-worker history windows and
// retry budgets, plus store and oracle selection. The hierarchy is fixed at
// startup; no runtime mutation is supported.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/worker"
)

// Config holds all deskmesh configuration.
type Config struct {
	// Root names the entry worker; defaults to the first configured worker.
	Root    string         `mapstructure:"root"`
	Workers []WorkerConfig `mapstructure:"workers"`
	History HistoryConfig  `mapstructure:"history"`
	Oracle  OracleConfig   `mapstructure:"oracle"`
	Retry   RetryConfig    `mapstructure:"retry"`
}

// WorkerConfig describes one worker node.
type WorkerConfig struct {
	Name          string   `mapstructure:"name"`
	Role          string   `mapstructure:"role"`
	Description   string   `mapstructure:"description"`
	Instructions  []string `mapstructure:"instructions"`
	Capabilities  []string `mapstructure:"capabilities"`
	Team          []string `mapstructure:"team"`
	HistoryWindow int      `mapstructure:"history_window"`
	RetryBudget   int      `mapstructure:"retry_budget"`
}

// HistoryConfig selects the conversation store backend.
type HistoryConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Path is the database file for the sqlite backend.
	Path string `mapstructure:"path"`
}

// OracleConfig selects the reasoning-oracle provider.
type OracleConfig struct {
	// Provider is "anthropic" or "openai".
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// RetryConfig tunes the capability retry executor.
type RetryConfig struct {
	MaxAttempts     int    `mapstructure:"max_attempts"`
	InitialInterval string `mapstructure:"initial_interval"`
	MaxInterval     string `mapstructure:"max_interval"`
	AttemptTimeout  string `mapstructure:"attempt_timeout"`
}

// Apply copies the parsed retry tuning onto executor options. Empty duration
// strings leave the executor defaults untouched.
func (r RetryConfig) Apply(o *retry.Options) error {
	if r.MaxAttempts > 0 {
		o.MaxAttempts = r.MaxAttempts
	}
	for _, d := range []struct {
		value  string
		target *time.Duration
	}{
		{r.InitialInterval, &o.InitialInterval},
		{r.MaxInterval, &o.MaxInterval},
		{r.AttemptTimeout, &o.AttemptTimeout},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid retry duration %q: %w", d.value, err)
		}
		*d.target = parsed
	}
	return nil
}

// Load reads a YAML configuration file, applying environment overrides with
// the DESKMESH_ prefix (e.g. DESKMESH_ORACLE_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DESKMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("history.backend", "memory")
	v.SetDefault("oracle.provider", "anthropic")
	v.SetDefault("retry.max_attempts", worker.DefaultRetryBudget)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(cfg.Workers) == 0 {
		return nil, fmt.Errorf("config %s: no workers defined", path)
	}

	return &cfg, nil
}

// BuildTree materializes the configured worker hierarchy, resolving
// capability names against the registry and team references against the
// worker set. Team references may form cycles; those are left to the
// per-request cycle guard. Unknown names are configuration errors.
func (c *Config) BuildTree(reg *capability.Registry) (*worker.Worker, error) {
	workers := make(map[string]*worker.Worker, len(c.Workers))
	order := make([]string, 0, len(c.Workers))

	for _, wc := range c.Workers {
		if wc.Name == "" {
			return nil, fmt.Errorf("worker with empty name")
		}
		if _, exists := workers[wc.Name]; exists {
			return nil, fmt.Errorf("duplicate worker %q", wc.Name)
		}

		bindings := make([]capability.Binding, 0, len(wc.Capabilities))
		for _, name := range wc.Capabilities {
			b, ok := reg.Get(name)
			if !ok {
				return nil, fmt.Errorf("worker %q: capability %q not registered", wc.Name, name)
			}
			bindings = append(bindings, b)
		}

		wc := wc
		workers[wc.Name] = worker.New(wc.Name, func(o *worker.Options) {
			o.Role = wc.Role
			o.Description = wc.Description
			o.Instructions = wc.Instructions
			o.Capabilities = bindings
			if wc.HistoryWindow > 0 {
				o.HistoryWindow = wc.HistoryWindow
			}
			if wc.RetryBudget > 0 {
				o.RetryBudget = wc.RetryBudget
			}
		})
		order = append(order, wc.Name)
	}

	for _, wc := range c.Workers {
		if len(wc.Team) == 0 {
			continue
		}
		children := make([]*worker.Worker, 0, len(wc.Team))
		for _, name := range wc.Team {
			child, ok := workers[name]
			if !ok {
				return nil, fmt.Errorf("worker %q: unknown team member %q", wc.Name, name)
			}
			children = append(children, child)
		}
		workers[wc.Name].SetChildren(children...)
	}

	rootName := c.Root
	if rootName == "" {
		rootName = order[0]
	}
	root, ok := workers[rootName]
	if !ok {
		return nil, fmt.Errorf("root worker %q not defined", rootName)
	}

	return root, nil
}
