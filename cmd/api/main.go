package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"douro_cms/internal/adapters/deepl"
	server "douro_cms/internal/adapters/http_server"
	"douro_cms/internal/adapters/media"
	"douro_cms/internal/adapters/observability"
	redisad "douro_cms/internal/adapters/redis"
	"douro_cms/internal/app"
	"douro_cms/internal/domain"
	"douro_cms/internal/shared"
	mysqlrepo "douro_cms/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		// reads fall through to the database while redis is away
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	cancelPing()

	store, err := media.NewStore(media.Config{
		Dir:       cfg.MediaDir,
		BaseURL:   cfg.MediaBaseURL,
		MaxWidth:  cfg.MediaMaxWidth,
		MaxHeight: cfg.MediaMaxHeight,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("media store init failed")
	}
	uploader := app.NewUploader(store)
	tr := app.NewTranslator(
		deepl.NewProvider(deepl.Config{Key: cfg.DeepLKey, BaseURL: cfg.DeepLBaseURL, RPS: cfg.TranslateRPS}),
		repo,
		app.TranslatorConfig{Concurrency: cfg.TranslateConcurrency, Async: cfg.TranslateAsync},
	)

	items := map[domain.ItemKind]*server.ItemCollection{}
	for _, k := range domain.ItemKinds() {
		items[k] = app.NewCollection[domain.Item, *domain.Item]("items:"+string(k), repo.Items(k), tr, cache, cfg.CacheTTL)
	}
	props := app.NewPropertyService(repo, repo, repo, uploader, tr, cache, cfg.CacheTTL)

	// http
	srv := server.New(server.Options{Timeout: cfg.RequestTimeout})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.Mount(cfg.MediaBaseURL+"/*", http.StripPrefix(cfg.MediaBaseURL+"/", http.FileServer(http.Dir(store.Dir()))))
	srv.MountHandlers(&server.Handlers{
		Content:      app.NewContentService(repo, tr, cache, cfg.CacheTTL),
		Items:        items,
		Testimonials: app.NewCollection[domain.Testimonial, *domain.Testimonial]("testimonials", repo.Testimonials(), tr, cache, cfg.CacheTTL),
		Team:         app.NewTeamService(repo.Team(), uploader, cache, cfg.CacheTTL),
		Newsletters:  app.NewNewsletterService(repo.Newsletters(), props, uploader, cache, cfg.CacheTTL),
		Properties:   props,
		SiteConfig:   app.NewSiteConfigService(repo, uploader, cache, cfg.CacheTTL),
		Zones:        app.NewZoneService(repo.Zones(), uploader, cache, cfg.CacheTTL),
		MaxImage:     cfg.MaxImageBytes,
		MaxFile:      cfg.MaxFileBytes,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	// detached translation passes still hold copies of accepted writes
	if err := tr.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("translation passes still running at exit")
	}
	_ = cache.Close()
	_ = db.Close()
}
