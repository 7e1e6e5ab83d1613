// Package config resolves settings with precedence defaults < file <
// environment, all through one Viper instance. GetConfigOptions is the
// single source of truth for keys, defaults, and the generated config
// file.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents,
// and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// If SetConfigFile was provided upstream it takes precedence;
	// these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "listflow"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "listflow"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// Read config file if present (overrides defaults)
	_ = v.ReadInConfig()

	// Environment variables: LISTFLOW_* (highest among these sources)
	v.SetEnvPrefix("listflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("scope")) == "" {
		v.Set("scope", "default")
	}
	return nil
}

// defaultDataDir resolves the default data dir: $XDG_DATA_HOME/listflow
// or ~/.local/share/listflow.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "listflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "listflow")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "listflow", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the configuration options, their defaults,
// and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		// Core paths and conventions
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; snapshot DB is data_dir/listflow.db"},
		{Key: "scope", Default: "default", Comment: "Snapshot scope used when none is specified (one per logical list)"},

		{Key: "backend.base_url", Default: "http://localhost:8787", Comment: "Base URL of the REST backend"},
		{Key: "backend.resource", Default: "selections", Comment: "Collection path under the base URL"},
		{Key: "backend.timeout", Default: "30s", Comment: "Per-request deadline"},

		{Key: "cache.ttl", Default: "3m", Comment: "Snapshot freshness window; older entries still show but trigger a refresh"},
		{Key: "cache.max_entries", Default: 20, Comment: "Snapshot entries kept per scope before LRU eviction"},

		{Key: "page.size", Default: 50, Comment: "Items fetched per page"},

		{Key: "render.chunk_size", Default: 40, Comment: "Rows revealed per render chunk"},
		{Key: "render.interval", Default: "16ms", Comment: "Delay between render chunks; 0 lets the UI drive growth"},

		{Key: "warmup.rate", Default: 4.0, Comment: "Warm-up fetches per second"},
		{Key: "warmup.burst", Default: 1, Comment: "Warm-up fetch burst size"},
	}
}

// ResolveDBPath returns the sqlite snapshot DB file path from data_dir
// rules.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "listflow.db")
}
