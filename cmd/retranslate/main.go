package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"douro_cms/internal/adapters/deepl"
	"douro_cms/internal/adapters/observability"
	redisad "douro_cms/internal/adapters/redis"
	"douro_cms/internal/app"
	"douro_cms/internal/domain"
	"douro_cms/internal/shared"
	mysqlrepo "douro_cms/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		workers     int
		onlyMissing bool
	)
	cmd := &cobra.Command{
		Use:   "retranslate [kind...]",
		Short: "Re-run machine translation over stored content",
		Long: "Translates the source text of stored content again and writes the derived languages.\n" +
			"Kinds: pages, culture, service, podcast_topic, testimonials, properties, fraction_columns, fractions.\n" +
			"No kind means all of them.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
			if workers <= 0 {
				workers = cfg.RetranslateWorkers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := sql.Open("mysql", cfg.MySQLDSN)
			if err != nil {
				return fmt.Errorf("sql.Open: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			repo := mysqlrepo.New(db)

			tr := app.NewTranslator(
				deepl.NewProvider(deepl.Config{Key: cfg.DeepLKey, BaseURL: cfg.DeepLBaseURL, RPS: cfg.TranslateRPS}),
				repo,
				app.TranslatorConfig{Concurrency: cfg.TranslateConcurrency},
			)
			svc := app.NewBackfillService(tr, sources(repo))

			kinds := args
			if len(kinds) == 0 {
				kinds = svc.Kinds()
			}
			for _, kind := range kinds {
				sum, err := svc.Run(ctx, kind, app.BackfillOptions{Workers: workers, OnlyMissing: onlyMissing})
				if err != nil {
					return err
				}
				log.Info().
					Str("kind", kind).
					Int("entities", sum.Entities).
					Int("skipped", sum.Skipped).
					Int("saved_fields", sum.Saved).
					Int("failed_fields", sum.Failed).
					Msg("retranslate done")
			}

			// cached views still hold the old derived text
			cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer cache.Close()
			if err := cache.Flush(ctx); err != nil {
				log.Warn().Err(err).Msg("cache flush failed; views refresh when their TTL expires")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "entities translated concurrently (default RETRANSLATE_WORKERS)")
	cmd.Flags().BoolVar(&onlyMissing, "only-missing", false, "only fields with an empty derived value")
	return cmd
}

func sources(repo *mysqlrepo.Repo) map[string]app.BackfillSource {
	out := map[string]app.BackfillSource{
		"pages":            app.PageSource(repo),
		"testimonials":     app.CollectionSource[domain.Testimonial, *domain.Testimonial](repo.Testimonials()),
		"properties":       app.PropertySource(repo),
		"fraction_columns": app.FractionColumnSource(repo, repo),
		"fractions":        app.FractionSource(repo, repo),
	}
	for _, k := range domain.ItemKinds() {
		out[string(k)] = app.CollectionSource[domain.Item, *domain.Item](repo.Items(k))
	}
	return out
}
