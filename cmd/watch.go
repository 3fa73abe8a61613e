package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/conneroisu/bundler/internal/bundle"
	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/notifier"
	bwatcher "github.com/conneroisu/bundler/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch <entry>",
	Aliases: []string{"w"},
	Short:   "Build, then rebuild on every change",
	Long: `Watch builds the application once, then monitors every loaded asset
for changes. A changed asset is invalidated and reprocessed on its own;
the bundle tree is only rebuilt and repackaged once the change settles,
and connected browser tabs are notified over the HMR websocket endpoint.

Examples:
  bundle watch src/index.js               # Watch with live reload
  bundle watch src/index.js --verbose      # Log every change batch`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchFlags *OutputFlags

func init() {
	rootCmd.AddCommand(watchCmd)
	watchFlags = AddOutputFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	fw, err := bwatcher.NewFileWatcher(300 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Stop()

	rt, err := newRuntime(cfg, log, fw)
	if err != nil {
		return err
	}
	if cfg.KillWorkers {
		defer rt.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entryAsset, err := rt.graph.LoadEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}
	if _, err := bundle.PackageTree(ctx, bundle.BuildTree(entryAsset), rt.packagers); err != nil {
		return fmt.Errorf("package bundle tree: %w", err)
	}
	fmt.Fprintf(os.Stderr, "built %s, watching %d asset(s)\n", entry, len(rt.graph.Assets()))

	var notif interfaces.Notifier
	if cfg.HMR {
		mgr := notifier.NewManager(notifier.AllowAllOrigins{}, log)
		notif = mgr
		mux := http.NewServeMux()
		mux.Handle("/__bundle_hmr", mgr)
		server := &http.Server{Addr: cfg.HMRAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, err, "hmr server stopped")
			}
		}()
		defer server.Close()
		fmt.Fprintf(os.Stderr, "hmr endpoint: ws://%s/__bundle_hmr\n", cfg.HMRAddr)
	}

	bwatcher.NewCoordinator(fw, rt.graph, entry, rt.packagers, notif, log)

	fw.AddFilter(bwatcher.ExtensionFilter(rt.registry.Snapshot()))
	fw.AddFilter(interfaces.FileFilterFunc(bwatcher.NoVendorFilter))
	fw.AddFilter(interfaces.FileFilterFunc(bwatcher.NoGitFilter))
	fw.AddFilter(interfaces.FileFilterFunc(bwatcher.NoTestFilter))

	fw.AddHandler(func(events []bwatcher.ChangeEvent) error {
		if watchFlags.Verbose {
			for _, ev := range events {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", ev.Type, ev.Path)
			}
		} else {
			fmt.Fprintf(os.Stderr, "%d file(s) changed\n", len(events))
		}
		return nil
	})

	for _, a := range rt.graph.Assets() {
		if err := fw.AddPath(filepath.Dir(a.Path)); err != nil {
			log.Warn(ctx, err, "failed to watch directory", "path", a.Path)
		}
	}

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}

	fmt.Fprintln(os.Stderr, "watching for changes... (press Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Fprintln(os.Stderr, "\nstopping...")

	return nil
}
