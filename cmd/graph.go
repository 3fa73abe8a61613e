package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v2"
)

var graphCmd = &cobra.Command{
	Use:   "graph <entry>",
	Short: "Resolve and print the dependency graph",
	Long: `Graph resolves the dependency graph from the given entry file without
packaging any bundles, then prints every loaded asset and the
specifiers it depends on.

Examples:
  bundle graph src/index.js               # Print the graph as a table
  bundle graph src/index.js -f yaml       # Print the graph as YAML`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

var graphFlags *OutputFlags

func init() {
	rootCmd.AddCommand(graphCmd)
	graphFlags = AddOutputFlags(graphCmd)
}

// graphNode is one asset's entry in the printed report, its AssetType
// title-cased for display (e.g. "js" -> "Js").
type graphNode struct {
	Path    string   `json:"path" yaml:"path"`
	Type    string   `json:"type" yaml:"type"`
	Depends []string `json:"depends" yaml:"depends"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	entry, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve entry path: %w", err)
	}
	cfg.Entry = entry

	log := logging.NewLogger(&logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Format: "text",
		Output: os.Stderr,
	})

	rt, err := newRuntime(cfg, log, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	if _, err := rt.graph.LoadEntry(ctx, entry); err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	titleCaser := cases.Title(language.English)

	nodes := make([]graphNode, 0, len(rt.graph.Assets()))
	for _, a := range rt.graph.Assets() {
		deps := make([]string, 0, len(a.DependencyOrder))
		for _, specifier := range a.DependencyOrder {
			deps = append(deps, specifier)
		}
		sort.Strings(deps)
		nodes = append(nodes, graphNode{
			Path:    a.Path,
			Type:    titleCaser.String(a.AssetType),
			Depends: deps,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	return printGraph(nodes, graphFlags)
}

func printGraph(nodes []graphNode, flags *OutputFlags) error {
	if flags.Quiet {
		return nil
	}

	switch flags.Format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(nodes)
	case "yaml":
		out, err := yaml.Marshal(nodes)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		for _, n := range nodes {
			fmt.Printf("%s [%s]\n", n.Path, n.Type)
			for _, d := range n.Depends {
				fmt.Printf("  -> %s\n", d)
			}
		}
		return nil
	}
}
