package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/movies"
	"marquee/internal/tmdb"
)

func newPopulateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "populate",
		Short: "Seed the catalog from the TMDB popular listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			provider, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
				tmdb.WithRequestsPerSecond(cfg.TMDB.RequestsPerSecond))
			if err != nil {
				return fmt.Errorf("create tmdb client: %w", err)
			}

			svc := movies.NewService(cfg, store, provider, logging.NewNop())
			defer svc.Close()

			stored, err := svc.Populate(cmd.Context())
			if err != nil {
				return fmt.Errorf("populate catalog: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d movies in %s\n", stored, store.Path())
			return nil
		},
	}
}
