package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	implementationsFormat string
)

var implementationsCmd = &cobra.Command{
	Use:   "implementations TYPE",
	Short: "List the indexed types extending or implementing TYPE",
	Long: `Print the fully qualified names of every indexed class or interface whose
declaration names TYPE as a supertype, with their definition locations where
known. TYPE may be a short name or a fully qualified name.`,
	Args: cobra.ExactArgs(1),
	Run:  runImplementations,
}

func init() {
	implementationsCmd.Flags().StringVar(&implementationsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(implementationsCmd)
}

// implementorOut is one subtype in the command output.
type implementorOut struct {
	FQN    string `json:"fqn"`
	Path   string `json:"path,omitempty"`
	Line   uint32 `json:"line,omitempty"`
	Column uint32 `json:"column,omitempty"`
}

func runImplementations(cmd *cobra.Command, args []string) {
	logger := newLogger()

	s := mustOpenSession(logger)
	defer s.close()

	fqns := s.cache.AllImplementors(args[0])
	if len(fqns) == 0 {
		fmt.Fprintf(os.Stderr, "No implementations found for %q\n", args[0])
		os.Exit(1)
	}

	projects := s.cache.Projects()
	out := make([]implementorOut, 0, len(fqns))
	for _, fqn := range fqns {
		entry := implementorOut{FQN: fqn}
		for _, project := range projects {
			if rec, ok := s.cache.LookupSymbol(project, fqn); ok {
				entry.Path = rec.Location.Path
				entry.Line = rec.Location.Line + 1
				entry.Column = rec.Location.Column + 1
				break
			}
		}
		out = append(out, entry)
	}

	if implementationsFormat == "json" {
		data, err := json.Marshal(out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	for _, entry := range out {
		if entry.Path != "" {
			fmt.Printf("%s\t%s:%d:%d\n", entry.FQN, entry.Path, entry.Line, entry.Column)
		} else {
			fmt.Println(entry.FQN)
		}
	}
}
