// Package config loads the resolver configuration from .javelin/config.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"javelin/internal/errors"
)

// ConfigDirName is the per-workspace directory holding config and cache data.
const ConfigDirName = ".javelin"

// Config represents the complete javelin configuration
type Config struct {
	Version       int    `json:"version" mapstructure:"version"`
	WorkspaceRoot string `json:"workspaceRoot" mapstructure:"workspaceRoot"`

	Languages  LanguagesConfig  `json:"languages" mapstructure:"languages"`
	Resolution ResolutionConfig `json:"resolution" mapstructure:"resolution"`
	External   ExternalConfig   `json:"external" mapstructure:"external"`
	Indexing   IndexingConfig   `json:"indexing" mapstructure:"indexing"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// LanguagesConfig toggles the supported language adapters
type LanguagesConfig struct {
	Java   bool `json:"java" mapstructure:"java"`
	Groovy bool `json:"groovy" mapstructure:"groovy"`
	Kotlin bool `json:"kotlin" mapstructure:"kotlin"`
}

// ResolutionConfig bounds the resolution cascade
type ResolutionConfig struct {
	// MaxDepth is the recursion ceiling guarding against alias cycles
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
}

// ExternalConfig configures external-artifact handling
type ExternalConfig struct {
	// DecompilerArgs is the argv template invoked for .class entries without
	// source; the class-file path is appended as the last argument.
	DecompilerArgs []string `json:"decompilerArgs" mapstructure:"decompilerArgs"`
	// BuiltinArchives are source archives for language builtins (e.g. the
	// JDK src.zip). Searched in order.
	BuiltinArchives []string `json:"builtinArchives" mapstructure:"builtinArchives"`
}

// IndexingConfig configures the project indexer
type IndexingConfig struct {
	// Ignore lists directory names skipped during project scans
	Ignore []string `json:"ignore" mapstructure:"ignore"`
	// MaxFileSizeBytes skips pathologically large source files
	MaxFileSizeBytes int `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	// Workers bounds parallel file parsing; 0 means GOMAXPROCS
	Workers int `json:"workers" mapstructure:"workers"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:       1,
		WorkspaceRoot: ".",
		Languages: LanguagesConfig{
			Java:   true,
			Groovy: true,
			Kotlin: true,
		},
		Resolution: ResolutionConfig{
			MaxDepth: 10,
		},
		External: ExternalConfig{
			DecompilerArgs:  []string{},
			BuiltinArchives: []string{},
		},
		Indexing: IndexingConfig{
			Ignore:           []string{".git", ".javelin", "build", "target", "out", "node_modules"},
			MaxFileSizeBytes: 1000000,
			Workers:          0,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.javelin/config.toml, falling back to
// defaults when no file exists.
func Load(workspaceRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetDefault("workspaceRoot", workspaceRoot)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(workspaceRoot, ConfigDirName))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.WorkspaceRoot = workspaceRoot
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to parse config file", err)
	}
	cfg.WorkspaceRoot = workspaceRoot

	return cfg, nil
}

// CacheDir returns the directory holding the persistent cache database,
// creating it if needed.
func (c *Config) CacheDir() (string, error) {
	dir := filepath.Join(c.WorkspaceRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ConfigInvalid, "failed to create cache directory", err)
	}
	return dir, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.Newf(errors.ConfigInvalid, "unsupported config version %d", c.Version)
	}
	if c.Resolution.MaxDepth <= 0 {
		return errors.New(errors.ConfigInvalid, "resolution.maxDepth must be positive")
	}
	return nil
}
