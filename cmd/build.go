package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/conneroisu/bundler/internal/bundle"
	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var buildCmd = &cobra.Command{
	Use:     "build <entry>",
	Aliases: []string{"b"},
	Short:   "Build the application once and exit",
	Long: `Build resolves the dependency graph from the given entry file,
processes every asset through the worker farm (or the build cache, on a
warm run), and packages the resulting bundle tree to the configured
output directory.

Examples:
  bundle build src/index.js               # Build once
  NODE_ENV=production bundle build src/index.js  # Minified production build
  bundle build src/index.js -f yaml       # Print the build report as YAML`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var buildFlags *OutputFlags

func init() {
	rootCmd.AddCommand(buildCmd)
	buildFlags = AddOutputFlags(buildCmd)
}

// buildReport is the summary printed after a build, in whichever of
// table/json/yaml the caller asked for.
type buildReport struct {
	Entry    string            `json:"entry" yaml:"entry"`
	OutDir   string            `json:"out_dir" yaml:"out_dir"`
	Assets   int               `json:"assets" yaml:"assets"`
	Bundles  map[string]string `json:"bundles" yaml:"bundles"`
	CacheHit float64           `json:"cache_hit_rate" yaml:"cache_hit_rate"`
	Duration string            `json:"duration" yaml:"duration"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := buildFlags.Validate(); err != nil {
		return err
	}

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

	start := time.Now()
	ctx := context.Background()

	if !buildFlags.Quiet {
		fmt.Fprintf(os.Stderr, "resolving %s...\n", entry)
	}

	entryAsset, err := rt.graph.LoadEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	tree := bundle.BuildTree(entryAsset)
	hashes, err := bundle.PackageTree(ctx, tree, rt.packagers)
	if err != nil {
		return fmt.Errorf("package bundle tree: %w", err)
	}

	report := buildReport{
		Entry:    entry,
		OutDir:   cfg.OutDir,
		Assets:   len(rt.graph.Assets()),
		Bundles:  hashes,
		CacheHit: rt.metrics.GetCacheHitRate(),
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}

	return printBuildReport(report, buildFlags)
}

func printBuildReport(report buildReport, flags *OutputFlags) error {
	if flags.Quiet {
		return nil
	}

	switch flags.Format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(report)
	default:
		fmt.Printf("built %s in %s\n", report.Entry, report.Duration)
		fmt.Printf("  assets: %d, cache hit rate: %.0f%%\n", report.Assets, report.CacheHit*100)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BUNDLE\tHASH")
		for name, hash := range report.Bundles {
			fmt.Fprintf(w, "%s\t%s\n", name, hash)
		}
		return w.Flush()
	}
}
