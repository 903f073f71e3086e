package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/rdswitchboard/graph-exporter/pkg/config"
	"github.com/rdswitchboard/graph-exporter/pkg/export"
	"github.com/rdswitchboard/graph-exporter/pkg/logging"
	"github.com/rdswitchboard/graph-exporter/pkg/output"
	"github.com/rdswitchboard/graph-exporter/pkg/sink"
	"github.com/rdswitchboard/graph-exporter/pkg/store"
	"github.com/rdswitchboard/graph-exporter/pkg/store/memstore"
	"github.com/rdswitchboard/graph-exporter/pkg/store/neo4jstore"
	"github.com/rdswitchboard/graph-exporter/pkg/watcher"
	"github.com/rdswitchboard/graph-exporter/pkg/web"
)

// Exit codes for --test-node, so deploy scripts can tell "not exported"
// apart from "crashed".
const (
	exitOK         = 0
	exitError      = 1
	exitNotFound   = 2
	exitIneligible = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("graph-exporter", pflag.ContinueOnError)
	flags.String("store", "", "Bolt URI (bolt://, neo4j://) or path of a JSON snapshot file")
	flags.String("store-user", "", "Store username")
	flags.String("store-password", "", "Store password")
	flags.String("store-database", "", "Store database name (server default if empty)")
	flags.String("output", "", "Directory to write documents to")
	flags.String("bucket", "", "S3 bucket to write documents to")
	flags.String("prefix", "", "Key prefix for bucket documents, e.g. rda/v1/")
	flags.Bool("public", false, "Make bucket documents publicly readable")
	flags.String("region", "", "AWS region override for the bucket")
	flags.Int("max-level", 2, "Traversal depth limit (0 exports the root alone)")
	flags.Int("max-nodes", 100, "Total node budget per document (0 = unlimited)")
	flags.Int("max-siblings", 10, "Neighbors expanded per node per level (0 = unlimited)")
	flags.Int64("test-node", 0, "Process a single node id and exit")
	flags.Int("workers", 0, "Concurrent root processors (0 = one per CPU)")
	flags.Bool("watch", false, "Re-export when a snapshot file store changes")
	flags.Bool("web", false, "Serve run status over HTTP")
	flags.Int("port", 8080, "Port for the status server")
	flags.String("verbosity", "", "Log level: debug, info, warn, error")
	flags.CountP("verbose", "v", "Increase log verbosity (repeatable)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	logging.SetLevel(logLevel(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Error("failed to open store", "store", cfg.Store, "error", err)
		return exitError
	}
	defer st.Close(ctx)

	dispatcher, err := buildDispatcher(ctx, cfg)
	if err != nil {
		logging.Error("failed to open output destination", "error", err)
		return exitError
	}

	snap, err := st.OpenSnapshot(ctx)
	if err != nil {
		logging.Error("failed to open snapshot", "store", cfg.Store, "error", err)
		return exitError
	}
	defer snap.Close(ctx)

	exporter := export.New(snap, cfg.SourceSet(), cfg.Limits(), dispatcher, cfg.Workers)

	if cfg.TestNode != 0 {
		return runTestNode(ctx, exporter, cfg.TestNode)
	}

	var server *web.Server
	if cfg.WebMode {
		server = web.NewServer(cfg.Output)
		go func() {
			if err := server.Start(cfg.Port); err != nil {
				logging.Fatal("status server failed", "error", err)
			}
		}()
	}

	summary, err := exporter.Run(ctx)
	if err != nil {
		logging.Error("export run failed", "error", err)
		return exitError
	}
	if server != nil {
		server.SetSummary(summary)
	}
	output.PrintRunReport(cfg.Store, summary)

	if cfg.Watch {
		if cfg.BoltStore() {
			logging.Error("watch mode needs a snapshot file store", "store", cfg.Store)
			return exitError
		}
		if err := watchLoop(ctx, cfg, dispatcher, server); err != nil {
			logging.Error("watch mode failed", "error", err)
			return exitError
		}
		return exitOK
	}

	if cfg.WebMode {
		// Keep serving status until interrupted.
		<-ctx.Done()
	}
	return exitOK
}

// runTestNode maps the typed single-node result onto the process exit code.
func runTestNode(ctx context.Context, exporter *export.Exporter, id int64) int {
	result, summary, err := exporter.RunNode(ctx, id)
	if err != nil {
		logging.Error("test node failed", "node", id, "error", err)
		return exitError
	}
	switch result {
	case export.TestNotFound:
		logging.Warn("test node does not exist", "node", id)
		return exitNotFound
	case export.TestIneligible:
		logging.Warn("test node matches no source", "node", id)
		return exitIneligible
	}
	logging.Info("test node exported", "node", id, "documents", summary.Documents)
	return exitOK
}

// watchLoop re-runs the export whenever the snapshot file changes. Each cycle
// reloads the snapshot so deleted nodes disappear from the output.
func watchLoop(ctx context.Context, cfg *config.Config, dispatcher *sink.Dispatcher, server *web.Server) error {
	sw, err := watcher.NewSnapshotWatcher(cfg.Store)
	if err != nil {
		return err
	}
	if err := sw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(sw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-debouncer.Output():
			if !ok {
				return nil
			}
			logging.Info("snapshot changed, re-exporting", "changes", len(event.Paths))

			st, err := memstore.Load(cfg.Store)
			if err != nil {
				logging.Error("failed to reload snapshot", "store", cfg.Store, "error", err)
				continue
			}
			exporter := export.New(st, cfg.SourceSet(), cfg.Limits(), dispatcher, cfg.Workers)
			summary, err := exporter.Run(ctx)
			if err != nil {
				logging.Error("re-export failed", "error", err)
				continue
			}
			if server != nil {
				server.SetSummary(summary)
			}
			output.PrintRunReport(cfg.Store, summary)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.BoltStore() {
		st, err := neo4jstore.Open(ctx, neo4jstore.Options{
			URI:      cfg.Store,
			Username: cfg.StoreUser,
			Password: cfg.StorePassword,
			Database: cfg.StoreDatabase,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := memstore.Load(cfg.Store)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func buildDispatcher(ctx context.Context, cfg *config.Config) (*sink.Dispatcher, error) {
	var sinks []sink.Sink
	if cfg.Output != "" {
		f, err := sink.NewFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
	}
	if cfg.Bucket != "" {
		s3, err := sink.NewS3(ctx, sink.S3Options{
			Bucket:     cfg.Bucket,
			Prefix:     cfg.Prefix,
			PublicRead: cfg.Public,
			Region:     cfg.Region,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3)
	}
	return sink.NewDispatcher(sinks...), nil
}

// logLevel resolves --verbosity (named level) and -v (counted) into a slog
// level; the named level wins when both are set.
func logLevel(cfg *config.Config) slog.Level {
	switch cfg.Verbosity {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if cfg.VerboseCnt > 0 {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
