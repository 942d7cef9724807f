package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/movies"
	"marquee/internal/server"
	"marquee/internal/tmdb"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the marquee HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lockPath := filepath.Join(filepath.Dir(cfg.Database.Path), "marquee.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another marquee instance is already running (lock %s)", lockPath)
			}
			defer lock.Unlock()

			store, err := catalog.Open(cfg)
			if err != nil {
				logger.Error("open catalog store", logging.Error(err))
				return err
			}
			defer store.Close()

			provider, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
				tmdb.WithRequestsPerSecond(cfg.TMDB.RequestsPerSecond))
			if err != nil {
				return fmt.Errorf("create tmdb client: %w", err)
			}

			svc := movies.NewService(cfg, store, provider, logger)
			defer svc.Close()

			srv, err := server.New(cfg, svc, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			if err := srv.Start(signalCtx); err != nil {
				return fmt.Errorf("start server: %w", err)
			}
			defer srv.Stop()

			logger.Info("marquee serving", logging.String("addr", srv.Addr()))

			<-signalCtx.Done()
			logger.Info("marquee shutting down")
			return nil
		},
	}
}
