package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"javelin/internal/artifact"
	"javelin/internal/cache"
	"javelin/internal/config"
	"javelin/internal/lang"
	"javelin/internal/logging"
	"javelin/internal/storage"
	"javelin/internal/version"
)

var (
	// workspaceFlag is the CLI --workspace flag value
	workspaceFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
	// logFormatFlag is the CLI --log-format flag value
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "javelin",
	Short: "javelin - JVM code navigation server",
	Long: `javelin resolves identifier usages in Java, Groovy, and Kotlin sources to
their definitions across multi-project workspaces, external dependencies, and
the JDK, backed by a persistent symbol cache.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("javelin version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "",
		"Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "human",
		"Log format: human or json")
}

// newLogger builds the stderr logger from the global flags.
func newLogger() *logging.Logger {
	format := logging.HumanFormat
	if logFormatFlag == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(logLevelFlag),
	})
}

// workspaceRoot resolves the workspace root from the --workspace flag or the
// current directory, as an absolute path.
func workspaceRoot() (string, error) {
	root := workspaceFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = cwd
	}
	return filepath.Abs(root)
}

// session bundles the long-lived pieces every command needs: configuration,
// the persistent store, the symbol cache, and the language registry.
type session struct {
	cfg        *config.Config
	db         *storage.DB
	cache      *cache.SymbolCache
	registry   *lang.Registry
	decompiler *artifact.Decompiler
	logger     *logging.Logger
}

// mustOpenSession loads configuration and opens the cache database, exiting
// on any failure. Callers must close() the session.
func mustOpenSession(logger *logging.Logger) *session {
	root, err := workspaceRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving workspace root: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating cache directory: %v\n", err)
		os.Exit(1)
	}
	db, err := storage.Open(cacheDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache database: %v\n", err)
		os.Exit(1)
	}

	registry := newRegistry(cfg)
	decompiler := artifact.NewDecompiler(cfg.External.DecompilerArgs, logger)
	symbolCache := cache.New(db, logger, cache.Options{
		BuiltinArchives: cfg.External.BuiltinArchives,
		Registry:        registry,
		Decompiler:      decompiler,
	})

	return &session{
		cfg:        cfg,
		db:         db,
		cache:      symbolCache,
		registry:   registry,
		decompiler: decompiler,
		logger:     logger,
	}
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close cache database", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// newRegistry assembles the adapters the configuration enables.
func newRegistry(cfg *config.Config) *lang.Registry {
	var adapters []lang.Adapter
	if cfg.Languages.Java {
		adapters = append(adapters, lang.NewJava())
	}
	if cfg.Languages.Groovy {
		adapters = append(adapters, lang.NewGroovy())
	}
	if cfg.Languages.Kotlin {
		adapters = append(adapters, lang.NewKotlin())
	}
	return lang.NewRegistry(adapters...)
}

// projectFor picks the indexed project whose root contains path, preferring
// the deepest match so sub-projects win over the workspace root.
func projectFor(c *cache.SymbolCache, path, fallback string) string {
	best := ""
	for _, root := range c.Projects() {
		if !strings.HasPrefix(path, root+string(filepath.Separator)) && path != root {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return fallback
	}
	return best
}
