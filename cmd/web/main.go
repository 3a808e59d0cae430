package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/HowestAILab/AIUPD8-Website/internal/catalog"
	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/handlers"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/middleware"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/config"
	pfirestore "github.com/HowestAILab/AIUPD8-Website/internal/platform/firestore"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/jobs"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/observability"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/secrets"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
	"github.com/HowestAILab/AIUPD8-Website/internal/richtext"
	"github.com/HowestAILab/AIUPD8-Website/internal/translate"
	"github.com/HowestAILab/AIUPD8-Website/internal/views"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	lookup, err := config.Lookup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment: %v\n", err)
		os.Exit(1)
	}
	level, _ := lookup("LOG_LEVEL")
	baseLogger, err := observability.NewLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")
	ctx = observability.WithLogger(ctx, logger)

	secretsProject, _ := lookup("AIUPD8_SECRETS_PROJECT_ID")
	fetcher := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(secretsProject),
	)
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	logger = logger.With(zap.String("environment", cfg.Server.Environment))

	metrics := observability.NewMetrics()
	registry := projects.MustDefault()
	media := normalize.Options{
		MediaBaseURL:    cfg.Site.MediaBaseURL,
		SanityProjectID: cfg.Sanity.ProjectID,
		SanityDataset:   cfg.Sanity.Dataset,
	}

	backend, err := newContentBackend(cfg.Sanity, logger)
	if err != nil {
		logger.Fatal("failed to initialise content backend", zap.Error(err))
	}
	content := cms.NewService(backend, registry,
		cms.WithLogger(logger),
		cms.WithMetrics(metrics),
		cms.WithCacheTTL(cfg.Cache.TTL, cfg.Cache.TaxonomyTTL),
		cms.WithCacheSize(cfg.Cache.Size),
		cms.WithTimeout(cfg.Sanity.Timeout),
		cms.WithMedia(media),
	)

	var warmer *cms.Warmer
	if cfg.Cache.WarmSchedule != "" {
		warmer, err = cms.NewWarmer(content, cfg.Cache.WarmSchedule, logger, 2*cfg.Sanity.Timeout)
		if err != nil {
			logger.Fatal("failed to initialise cache warmer", zap.Error(err))
		}
		warmer.Start()
	}

	var store favorites.Store = favorites.NewMemoryStore()
	var firestoreProvider *pfirestore.Provider
	if cfg.Firestore.ProjectID != "" {
		firestoreProvider = pfirestore.NewProvider(cfg.Firestore)
		fsStore, err := favorites.NewFirestoreStore(firestoreProvider)
		if err != nil {
			logger.Fatal("failed to initialise favorites store", zap.Error(err))
		}
		store = fsStore
		defer func() {
			if err := firestoreProvider.Close(); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}()
	} else {
		logger.Info("favorites kept in memory; no firestore project configured")
	}

	translateOpts := []translate.Option{
		translate.WithLogger(logger),
		translate.WithMetrics(metrics),
	}
	if cfg.PubSub.TranslationTopic != "" && cfg.PubSub.ProjectID != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := client.Topic(cfg.PubSub.TranslationTopic)
		defer func() {
			topic.Stop()
			if err := client.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := jobs.NewPubSubTranslationPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise translation publisher", zap.Error(err))
		}
		translateOpts = append(translateOpts, translate.WithPublisher(publisher))
	}
	openai := translate.NewOpenAIClient(translate.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if !openai.Configured() {
		logger.Warn("translation disabled; no OpenAI api key configured")
	}
	translator := translate.NewService(openai, translateOpts...)

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		logger.Fatal("failed to load translations", zap.Error(err))
	}
	renderer, err := views.New(bundle)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	site := handlers.NewSiteHandlers(
		handlers.WithSiteContent(content),
		handlers.WithSiteCatalog(catalog.NewService(content, registry, logger)),
		handlers.WithSiteFavorites(store),
		handlers.WithSiteProjects(registry),
		handlers.WithSiteBundle(bundle),
		handlers.WithSiteViews(renderer),
		handlers.WithSiteRichText(richtext.New(richtext.WithMedia(content.Media()))),
		handlers.WithSiteMetrics(metrics),
		handlers.WithSiteBaseURL(cfg.Site.BaseURL),
		handlers.WithSiteAnalytics(handlers.Analytics{CloudflareToken: cfg.Analytics.CloudflareToken}),
		handlers.WithSiteSecureCookies(cfg.Site.SecureCookies),
	)
	api := handlers.NewAPIHandlers(
		handlers.WithAPIContent(content),
		handlers.WithAPIFavorites(store),
		handlers.WithAPITranslator(translator),
		handlers.WithAPIRateLimiter(translate.NewLimiter(cfg.Translate.PerMinute)),
		handlers.WithAPIMetrics(metrics),
	)
	health := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(handlers.BuildInfo{
			Version:     version,
			CommitSHA:   commit,
			Environment: cfg.Server.Environment,
			StartedAt:   startedAt,
		}),
		handlers.WithHealthCheck("cms", func(ctx context.Context) error {
			_, err := content.ListTools(ctx)
			return err
		}),
	)

	secure := cfg.Site.SecureCookies
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			middleware.Visitor(secure),
			middleware.Locale(i18n.ParseOr(cfg.Site.DefaultLocale, i18n.Default), secure),
			middleware.Project(registry, secure),
			middleware.HTMX,
			observability.RequestLoggerMiddleware(metrics),
			observability.RecoveryMiddleware(logger, nil),
			chimw.Compress(5),
		),
		handlers.WithAPIMiddlewares(middleware.CORS(cfg.CORS.AllowedOrigins)),
		handlers.WithHealthHandlers(health),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithAssets(middleware.AssetsWithCache(views.Static())),
		handlers.WithSiteRoutes(site.Routes),
		handlers.WithAPIRoutes(api.Routes),
		handlers.WithNotFound(site.NotFound),
	)

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("server starting",
			zap.String("version", version),
			zap.Bool("sanity", cfg.Sanity.Enabled()),
			zap.Bool("firestore", firestoreProvider != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if warmer != nil {
		warmer.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newContentBackend queries Sanity when a project is configured and serves
// the bundled fixtures otherwise.
func newContentBackend(cfg config.SanityConfig, logger *zap.Logger) (cms.Backend, error) {
	if !cfg.Enabled() {
		logger.Warn("no sanity project configured; serving fixture content")
		fixtures, err := cms.NewFixtureBackend()
		if err != nil {
			return nil, err
		}
		return fixtures, nil
	}
	client, err := cms.NewClient(cms.SanityConfig{
		ProjectID:  cfg.ProjectID,
		Dataset:    cfg.Dataset,
		APIVersion: cfg.APIVersion,
		Token:      cfg.Token,
		UseCDN:     cfg.UseCDN,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return cms.NewSanityBackend(client), nil
}
