package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arlomercer/beatvault-backend/api/routes"
	"github.com/arlomercer/beatvault-backend/internal/adminauth"
	"github.com/arlomercer/beatvault-backend/internal/catalog"
	"github.com/arlomercer/beatvault-backend/internal/checkout"
	"github.com/arlomercer/beatvault-backend/internal/downloads"
	"github.com/arlomercer/beatvault-backend/internal/orders"
	"github.com/arlomercer/beatvault-backend/internal/pricing"
	"github.com/arlomercer/beatvault-backend/internal/purchases"
	"github.com/arlomercer/beatvault-backend/internal/reference"
	"github.com/arlomercer/beatvault-backend/internal/waitlist"
	lemonsqueezywebhook "github.com/arlomercer/beatvault-backend/internal/webhooks/lemonsqueezy"
	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/lemonsqueezy"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/mailer"
	"github.com/arlomercer/beatvault-backend/pkg/metrics"
	"github.com/arlomercer/beatvault-backend/pkg/migrate"
	"github.com/arlomercer/beatvault-backend/pkg/paypal"
	"github.com/arlomercer/beatvault-backend/pkg/redis"
	"github.com/arlomercer/beatvault-backend/pkg/storage/r2"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	r2Client, err := r2.NewClient(ctx, cfg.R2, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	paypalClient, err := paypal.NewClient(ctx, cfg.PayPal, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap paypal client", err)
		os.Exit(1)
	}

	lsClient, err := lemonsqueezy.NewClient(ctx, cfg.LemonSqueezy, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap lemonsqueezy client", err)
		os.Exit(1)
	}

	mailClient, err := mailer.NewClient(ctx, cfg.Resend, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	referenceRepo := reference.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	purchaseRepo := purchases.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo, r2Client, r2Client, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	referenceService, err := reference.NewService(referenceRepo)
	if err != nil {
		logg.Error(ctx, "failed to create reference service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(catalogRepo, referenceRepo)
	if err != nil {
		logg.Error(ctx, "failed to create pricing service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo, pricingService, paypalClient, storeMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	purchaseService, err := purchases.NewService(purchases.ServiceParams{
		Repo:         purchaseRepo,
		OrderRepo:    orderRepo,
		Beats:        catalogRepo,
		Addons:       referenceRepo,
		Provider:     paypalClient,
		TxRunner:     dbClient,
		Mailer:       mailClient,
		Metrics:      storeMetrics,
		Logger:       logg,
		PublicURL:    cfg.App.PublicURL,
		DownloadBase: cfg.Downloads.BaseURL,
		TokenTTL:     cfg.Downloads.TokenTTL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create purchase service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(pricingService, lsClient, storeMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	downloadService, err := downloads.NewService(purchaseRepo, storeMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create download service", err)
		os.Exit(1)
	}

	adminAuthService, err := adminauth.NewService(
		adminauth.NewRepository(dbClient.DB()),
		redisClient,
		mailClient,
		logg,
		cfg.OTP,
		cfg.Session,
	)
	if err != nil {
		logg.Error(ctx, "failed to create admin auth service", err)
		os.Exit(1)
	}

	waitlistService, err := waitlist.NewService(waitlist.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create waitlist service", err)
		os.Exit(1)
	}

	webhookService, err := lemonsqueezywebhook.NewService(lemonsqueezywebhook.ServiceParams{
		PurchaseRepo: purchaseRepo,
		Beats:        catalogRepo,
		Reference:    referenceRepo,
		Metrics:      storeMetrics,
		Logger:       logg,
		DownloadBase: cfg.Downloads.BaseURL,
		TokenTTL:     cfg.Downloads.TokenTTL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := lemonsqueezywebhook.NewIdempotencyGuard(redisClient, cfg.LemonSqueezy.EventTTL, "webhook:lemonsqueezy")
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		Catalog:   catalogService,
		Reference: referenceService,
		Orders:    orderService,
		Purchases: purchaseService,
		Checkout:  checkoutService,
		Downloads: downloadService,
		AdminAuth: adminAuthService,
		Waitlist:  waitlistService,

		WebhookService: webhookService,
		WebhookGuard:   webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
