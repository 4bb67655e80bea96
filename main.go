package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"expert-hub/config"
	"expert-hub/providers/bucket"
	"expert-hub/services"
	"expert-hub/storage"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// routeDeps bündelt alles, was die HTTP-Routen brauchen.
type routeDeps struct {
	cfg       *config.Config
	log       *zap.Logger
	experts   storage.ExpertStore
	companies storage.CompanyStore
	runs      storage.ImportRunStore
	importer  *services.ImportService
	enricher  *services.EnrichmentService // nil = Anreicherung deaktiviert
}

func newRouter(d routeDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(apiKeyAuthMiddleware(d.cfg))
	setupExpertRoutes(api, d)
	setupImportRunRoutes(api, d.runs, d.log)
	setupCompanyRoutes(api, d.companies, d.log)
	return router
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to expert database.")

	logging.Info("Running database auto-migration...")
	if err := storage.AutoMigrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup Services
	experts := storage.NewGormExpertStore(db)
	runs := storage.NewGormImportRunStore(db)
	importer := services.NewImportService(experts, runs, services.NewImportMetrics(prometheus.DefaultRegisterer), logging)

	var enricher *services.EnrichmentService
	if cfg.EnrichmentEnabled() {
		gen, err := services.NewGenAIGenerator(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			logging.Fatal("GenAI client creation failed", zap.Error(err))
		}
		enricher = services.NewEnrichmentService(gen, logging)
		logging.Info("AI enrichment enabled", zap.String("model", cfg.GenAIModel))
	}

	router := newRouter(routeDeps{
		cfg:       cfg,
		log:       logging,
		experts:   experts,
		companies: storage.NewGormCompanyStore(db),
		runs:      runs,
		importer:  importer,
		enricher:  enricher,
	})

	// Setup Cron
	cronScheduler := cron.New()
	if cfg.S3Enabled() && cfg.CronSchedule != "" {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		fetcher := bucket.NewFetcher(&storage.S3Bucket{Client: s3Client, Bucket: cfg.S3Bucket}, cfg.ImportBucketPrefix, logging)
		_, err = cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled bucket import...")
			if err := runBucketImport(ctx, fetcher, importer, cfg); err != nil {
				logging.Error("Cron job failed", zap.Error(err))
			}
		})
		if err != nil {
			logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server shutdown failed", zap.Error(err))
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
	logging.Info("Server stopped")
}

// runBucketImport liest alle Dateien unter dem Import-Präfix und importiert sie als einen Batch.
func runBucketImport(ctx context.Context, fetcher *bucket.Fetcher, importer *services.ImportService, cfg *config.Config) error {
	records, err := fetcher.Read(ctx)
	if err != nil {
		return err
	}
	_, err = importer.Run(ctx, fetcher.Name(), records, importOptions(cfg, "", false))
	return err
}

// importOptions leitet die Importoptionen aus Konfiguration und Anfrage ab.
func importOptions(cfg *config.Config, mode string, dryRun bool) services.ImportOptions {
	opts := services.ImportOptions{
		Mode:          services.ModeSkipExisting,
		RecordTimeout: cfg.ImportRecordTimeout,
		DryRun:        dryRun,
	}
	switch services.ImportMode(mode) {
	case services.ModeMergeExisting:
		opts.Mode = services.ModeMergeExisting
	case services.ModeSkipExisting:
	default:
		if cfg.ImportMergeExisting {
			opts.Mode = services.ModeMergeExisting
		}
	}
	return opts
}
