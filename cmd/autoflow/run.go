package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoflow/internal/config"
	"autoflow/internal/handlers"
	"autoflow/internal/middleware"
	"autoflow/internal/observability"
	"autoflow/internal/services"
	"autoflow/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	flagHost      string
	flagPort      int
	flagStorePath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the autoflow server",
	Run:   run,
}

func init() {
	runCmd.Flags().StringVar(&flagHost, "host", "", "listen host (overrides config)")
	runCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
	runCmd.Flags().StringVar(&flagStorePath, "store", "", "automation store path (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagStorePath != "" {
		cfg.Store.Path = flagStorePath
	}

	if err := config.InitLogger(cfg); err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logrus.StandardLogger()

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		logger.Warnf("init tracing: %v", err)
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	// A corrupt store is fatal: silently resetting it would lose every
	// stored automation.
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			logger.Fatalf("Refusing to start with a corrupt automation store: %v", err)
		}
		logger.Fatalf("Failed to open automation store: %v", err)
	}
	logger.Infof("Loaded %d automations from %s", st.Len(), cfg.Store.Path)

	translator := services.NewOpenAITranslator(
		cfg.AI.OpenAI.APIKey,
		cfg.AI.OpenAI.BaseURL,
		cfg.AI.OpenAI.Model,
		cfg.AI.OpenAI.Timeout,
		logger,
	)
	engine := services.NewEngine(st, translator, logger)

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.RateLimitMiddleware(cfg))
	if cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	healthHandler := handlers.NewHealthHandler(st)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	if cfg.Monitoring.Enabled {
		r.GET(cfg.Monitoring.MetricsPath, handlers.NewMetricsHandler(st).GetMetrics)
	}

	api := r.Group("/api")
	handlers.RegisterAutomationRoutes(api, handlers.NewAutomationHandler(engine, logger))

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: listenAddr, Handler: r}
	go func() {
		logger.Infof("Starting server on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
