package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/movies"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog contents and cache activity",
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

			svc := movies.NewService(cfg, store, nil, logging.NewNop())
			defer svc.Close()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("collect stats: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Catalog", colorize))
			catalogRows := [][]string{
				{"Movies", strconv.FormatInt(stats.Catalog.TotalMovies, 10)},
				{"With details", strconv.FormatInt(stats.Catalog.WithDetails, 10)},
				{"Average vote", fmt.Sprintf("%.1f", stats.Catalog.AverageVote)},
			}
			if !stats.Catalog.NewestUpdated.IsZero() {
				catalogRows = append(catalogRows, []string{"Last update", stats.Catalog.NewestUpdated.Local().Format("2006-01-02 15:04:05")})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Value"},
				catalogRows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if len(stats.Catalog.ByLanguage) > 0 {
				languages := make([]string, 0, len(stats.Catalog.ByLanguage))
				for lang := range stats.Catalog.ByLanguage {
					languages = append(languages, lang)
				}
				sort.Strings(languages)
				langRows := make([][]string, 0, len(languages))
				for _, lang := range languages {
					langRows = append(langRows, []string{lang, strconv.FormatInt(stats.Catalog.ByLanguage[lang], 10)})
				}
				fmt.Fprintln(out, renderSectionHeader("Languages", colorize))
				fmt.Fprintln(out, renderTable(
					[]string{"Language", "Movies"},
					langRows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}

			fmt.Fprintln(out, renderSectionHeader("Cache", colorize))
			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Value"},
				[][]string{
					{"Hits", strconv.FormatInt(stats.Cache.Hits, 10)},
					{"Misses", strconv.FormatInt(stats.Cache.Misses, 10)},
					{"Evictions", strconv.FormatInt(stats.Cache.Evictions, 10)},
					{"Flushes", strconv.FormatInt(stats.Cache.Flushes, 10)},
					{"Hit rate", fmt.Sprintf("%.0f%%", stats.Cache.HitRate*100)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
