package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"javelin/internal/errors"
	"javelin/internal/lang"
	"javelin/internal/resolve"
)

var (
	resolveFormat string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE:LINE:COLUMN",
	Short: "Resolve the identifier at a source position to its definition",
	Long: `Parse the given file, find the identifier at the one-based LINE:COLUMN
position, and print the location of its definition. Definitions inside
archives are printed in ARCHIVE!/ENTRY notation.`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	logger := newLogger()

	path, line, column, err := parsePosition(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := mustOpenSession(logger)
	defer s.close()

	adapter, ok := s.registry.ForPath(path)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported file type: %s\n", path)
		os.Exit(1)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx := context.Background()
	tree, err := adapter.Parse(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	node := resolve.NodeAt(tree.RootNode(), line, column)
	if node == nil {
		fmt.Fprintf(os.Stderr, "Error: no identifier at %s:%d:%d\n", path, line+1, column+1)
		os.Exit(1)
	}

	cascade := resolve.NewCascade(s.cache, s.registry, s.decompiler, logger, s.cfg.Resolution.MaxDepth)
	loc, err := cascade.Resolve(ctx, resolve.Request{
		Tree:    tree,
		Source:  src,
		Path:    path,
		Project: projectFor(s.cache, path, s.cfg.WorkspaceRoot),
		Node:    node,
		Adapter: adapter,
	})
	if err != nil {
		if errors.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "No definition found for %q\n", node.Content(src))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error resolving: %v\n", err)
		os.Exit(1)
	}

	printLocation(loc, resolveFormat)
}

// parsePosition splits FILE:LINE:COLUMN, converting the one-based position
// into the zero-based coordinates the parser uses. File paths containing
// colons (Windows drives) survive because the split runs from the right.
func parsePosition(arg string) (path string, line, column uint32, err error) {
	colIdx := strings.LastIndex(arg, ":")
	if colIdx < 0 {
		return "", 0, 0, fmt.Errorf("expected FILE:LINE:COLUMN, got %q", arg)
	}
	lineIdx := strings.LastIndex(arg[:colIdx], ":")
	if lineIdx < 0 {
		return "", 0, 0, fmt.Errorf("expected FILE:LINE:COLUMN, got %q", arg)
	}

	lineNum, err := strconv.ParseUint(arg[lineIdx+1:colIdx], 10, 32)
	if err != nil || lineNum == 0 {
		return "", 0, 0, fmt.Errorf("invalid line in %q", arg)
	}
	colNum, err := strconv.ParseUint(arg[colIdx+1:], 10, 32)
	if err != nil || colNum == 0 {
		return "", 0, 0, fmt.Errorf("invalid column in %q", arg)
	}

	path, err = filepath.Abs(arg[:lineIdx])
	if err != nil {
		return "", 0, 0, err
	}
	return path, uint32(lineNum - 1), uint32(colNum - 1), nil
}

// locationOut is the one-based rendering of a definition location.
type locationOut struct {
	Path   string `json:"path"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

func printLocation(loc lang.Location, format string) {
	out := locationOut{Path: loc.Path, Line: loc.Line + 1, Column: loc.Column + 1}
	if format == "json" {
		data, err := json.Marshal(out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	fmt.Printf("%s:%d:%d\n", out.Path, out.Line, out.Column)
}
