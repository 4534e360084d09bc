package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weftdev/weft/internal/cache"
	"github.com/weftdev/weft/internal/composer"
	"github.com/weftdev/weft/internal/config"
	"github.com/weftdev/weft/internal/logging"
	"github.com/weftdev/weft/internal/server"
	"github.com/weftdev/weft/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the development server with live reload",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		builder := newBuilder(cfg, logger)
		srv := server.New(cfg, builder, logger)

		w, err := watcher.New(cfg.Watch.Debounce, logger)
		if err != nil {
			return err
		}
		defer w.Stop()

		w.AddFilter(watcher.ExtensionFilter(cfg.Watch.Extensions...))
		w.AddHandler(func(events []watcher.Event) {
			paths := make([]string, len(events))
			for i, ev := range events {
				paths[i] = ev.Path
			}
			srv.NotifyChange(paths)
		})
		if err := w.AddRecursive(cfg.Frontend.BasePath); err != nil {
			logger.Warn(ctx, err, "watching frontend tree failed", "path", cfg.Frontend.BasePath)
		}
		w.Start(ctx)

		return srv.Start(ctx)
	},
}

// newBuilder wires a composition engine from the loaded configuration.
func newBuilder(cfg *config.Config, logger logging.Logger) *composer.Builder {
	opts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithTimeout(cfg.Cache.Timeout),
	}
	if !cfg.Cache.Enabled {
		opts = append(opts, cache.Disabled())
	}

	return composer.New(composer.Options{
		BasePath: cfg.Frontend.BasePath,
		Caches:   cache.New(opts...),
		Logger:   logger,
	})
}

func init() {
	bindServerFlags(serveCmd.Flags())
	bindBuildFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
