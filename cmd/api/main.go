package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
	"github.com/imrishuroy/go-table-orderflow/internal/checkout"
	"github.com/imrishuroy/go-table-orderflow/internal/config"
	"github.com/imrishuroy/go-table-orderflow/internal/handlers"
	"github.com/imrishuroy/go-table-orderflow/internal/logging"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
)

func setupRouter(cfg config.Config, hc handlers.HandlerConfig) *gin.Engine {
	if hc.Logger == nil {
		hc.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(hc.Logger))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "Location"},
		MaxAge:        12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, hc)

	return r
}

func checkoutOptions(cfg config.Config, logger *zap.Logger) checkout.Options {
	opts := checkout.DefaultOptions()
	opts.VerifyDelay = cfg.VerifyDelay
	opts.PrepDuration = cfg.PrepDuration
	opts.OTPWindow = cfg.OTPWindow
	opts.MaxAttempts = cfg.OTPMaxAttempts
	opts.MaxResends = cfg.OTPMaxResends
	opts.Gateway = checkout.NewSimulatedGateway(cfg.PaymentDelay, cfg.DeclineRate, logger)
	opts.Sender = checkout.NewLogSender(logger)
	opts.Calculator = billing.NewCalculator(cfg.TaxRate)
	opts.Logger = logger
	return opts
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	sessions := session.NewManager(catalog.DefaultMenu(), checkoutOptions(cfg, logger), logger)
	defer sessions.Shutdown()
	sessions.StartReaper(cfg.SessionIdleTTL, cfg.SessionReapInterval)

	r := setupRouter(cfg, handlers.HandlerConfig{
		Menu:      catalog.DefaultMenu(),
		Sessions:  sessions,
		Publisher: aws.NewPublisher(clients.SQS, cfg.ExportQueueURL),
		Metrics:   aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		Logger:    logger,
		DemoMode:  cfg.DemoMode,
	})

	// sessions live in this process, so the API runs as a long-lived server;
	// only the worker is deployed to Lambda.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api server listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api server failed", zap.Error(err))
	}
}
