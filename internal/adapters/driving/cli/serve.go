package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/adapters/driving/api"
	"github.com/custodia-labs/refchat/internal/docsource/filesystem"
	"github.com/custodia-labs/refchat/internal/logger"
)

var (
	serveAddr    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the JSON HTTP API. The index is rebuilt in the background at
startup, and the documents folder is watched for changes so added or
removed files are reflected in the index without a manual reindex.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "disable the docs folder watcher")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()

	// Startup indexing happens in the background so the server is
	// reachable immediately; searches block on the rebuild lock instead.
	go func() {
		logger.Info("Indexing documents at startup...")
		if _, _, err := services.Index.Rebuild(ctx); err != nil {
			logger.Warn("Startup indexing failed: %v", err)
			return
		}
		logger.Info("Startup indexing done")
	}()

	if !serveNoWatch {
		if err := startWatcher(ctx); err != nil {
			logger.Warn("Docs folder watcher disabled: %v", err)
		}
	}

	addr := serveAddr
	if addr == "" {
		addr = services.Config.ListenAddr()
	}

	server := api.NewServer(services.Index, services.Chat, services.Library, services.Ollama,
		api.WithVersion(version),
		api.WithMaxUploadBytes(services.Config.MaxUploadBytes()),
		api.WithDefaultTopK(services.Config.Index.DefaultTopK),
		api.WithDocsDir(services.Source.Root()),
	)
	return server.Serve(ctx, addr)
}

// startWatcher keeps the index in sync with the docs folder. Upserts are
// removed then re-added so a rewritten file never leaves duplicate chunks;
// a failed add falls back to a full rebuild.
func startWatcher(ctx context.Context) error {
	watcher := filesystem.NewWatcher(services.Source)
	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for change := range changes {
			switch change.Type {
			case filesystem.ChangeUpserted:
				services.Index.RemoveDocument(change.File.Name)
				if _, err := services.Index.AddDocument(ctx, change.File); err != nil {
					logger.Warn("Reindexing %s failed, rebuilding: %v", change.File.Name, err)
					if _, _, err := services.Index.Rebuild(ctx); err != nil {
						logger.Warn("Rebuild failed: %v", err)
					}
				}
			case filesystem.ChangeRemoved:
				removed := services.Index.RemoveDocument(change.File.Name)
				logger.Debug("Watcher removed %s (%d chunks)", change.File.Name, removed)
			}
		}
	}()

	logger.Info("Watching %s for changes", services.Source.Root())
	return nil
}
