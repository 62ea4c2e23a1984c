package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"javelin/internal/indexer"
	"javelin/internal/repostate"
)

var (
	indexScipFile string
	indexForce    bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the workspace symbol cache",
	Long: `Discover the projects under the workspace root, parse their sources, and
persist the symbol tables. A cache whose fingerprint still matches the
repository state is left untouched unless --force is given.`,
	Run: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexScipFile, "scip", "",
		"Import type symbols from a SCIP index file instead of parsing sources")
	indexCmd.Flags().BoolVar(&indexForce, "force", false,
		"Reindex even when the cache is current")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger()

	s := mustOpenSession(logger)
	defer s.close()

	current := repostate.Compute(s.cfg.WorkspaceRoot)
	stale, err := s.db.IsStale(current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking cache staleness: %v\n", err)
		os.Exit(1)
	}
	if !stale && !indexForce {
		fmt.Println("Cache is current; nothing to do (use --force to reindex).")
		return
	}

	if err := s.db.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing stale cache: %v\n", err)
		os.Exit(1)
	}

	ix := indexer.New(s.cache, s.registry, logger, indexer.Options{
		Workers:          s.cfg.Indexing.Workers,
		Ignore:           s.cfg.Indexing.Ignore,
		MaxFileSizeBytes: int64(s.cfg.Indexing.MaxFileSizeBytes),
	})

	if indexScipFile != "" {
		err = ix.ImportSCIP(indexScipFile, s.cfg.WorkspaceRoot)
	} else {
		err = ix.IndexWorkspace(context.Background(), s.cfg.WorkspaceRoot)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error indexing workspace: %v\n", err)
		os.Exit(1)
	}

	if err := s.db.SaveFingerprint(current); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording cache fingerprint: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Indexed %d project(s) in %dms\n",
		len(s.cache.Projects()), time.Since(start).Milliseconds())
}
