package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"javelin/internal/cache"
	"javelin/internal/repostate"
	"javelin/internal/version"
)

var (
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and workspace status",
	Long:  "Display the cache database state, repository fingerprint, and per-project index status",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

// StatusResponse contains the complete system status for CLI output
type StatusResponse struct {
	Version   string               `json:"version"`
	Workspace string               `json:"workspace"`
	CachePath string               `json:"cachePath"`
	Indexed   bool                 `json:"indexed"`
	Stale     bool                 `json:"stale"`
	Branch    string               `json:"branch,omitempty"`
	Commit    string               `json:"commit,omitempty"`
	Projects  []ProjectStatusEntry `json:"projects"`
}

// ProjectStatusEntry describes one indexed project
type ProjectStatusEntry struct {
	Root         string   `json:"root"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies,omitempty"`
	Externals    int      `json:"externals"`
}

func runStatus(cmd *cobra.Command, args []string) {
	logger := newLogger()

	s := mustOpenSession(logger)
	defer s.close()

	current := repostate.Compute(s.cfg.WorkspaceRoot)
	_, indexed, err := s.db.LoadFingerprint()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache fingerprint: %v\n", err)
		os.Exit(1)
	}
	stale, err := s.db.IsStale(current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking cache staleness: %v\n", err)
		os.Exit(1)
	}

	response := StatusResponse{
		Version:   version.Version,
		Workspace: s.cfg.WorkspaceRoot,
		CachePath: s.db.Path(),
		Indexed:   indexed,
		Stale:     stale,
		Branch:    current.Branch,
		Commit:    current.HeadCommit,
	}
	for _, root := range s.cache.Projects() {
		entry := ProjectStatusEntry{Root: root, Status: string(cache.StatusInProgress)}
		if meta, ok := s.cache.Metadata(root); ok {
			entry.Status = string(meta.Status)
			entry.Dependencies = meta.Dependencies
			entry.Externals = len(meta.Externals)
		}
		response.Projects = append(response.Projects, entry)
	}

	if statusFormat == "json" {
		data, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("javelin %s\n", response.Version)
	fmt.Printf("Workspace: %s\n", response.Workspace)
	fmt.Printf("Cache:     %s\n", response.CachePath)
	if response.Branch != "" {
		fmt.Printf("Branch:    %s (%s)\n", response.Branch, shortCommit(response.Commit))
	}
	switch {
	case !response.Indexed:
		fmt.Println("State:     not indexed (run 'javelin index')")
	case response.Stale:
		fmt.Println("State:     stale (run 'javelin index')")
	default:
		fmt.Println("State:     current")
	}
	for _, p := range response.Projects {
		fmt.Printf("  %s  [%s]  deps=%d externals=%d\n",
			p.Root, p.Status, len(p.Dependencies), p.Externals)
	}
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
