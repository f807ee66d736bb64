package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/internal/logging"
	"github.com/iwvelando/property-analyzer/internal/portfolio"
	"github.com/iwvelando/property-analyzer/internal/server"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", ".env", "optional file of environment overrides")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	driver := portfolio.DriverMemory
	if cfg.PortfolioPath != "" {
		driver = portfolio.DriverSQLite
	}
	store, closeStore, err := portfolio.Open(driver, cfg.PortfolioPath)
	if err != nil {
		logger.Fatal("failed to open portfolio",
			zap.String("op", "main"),
			zap.String("driver", driver),
			zap.Error(err),
		)
	}
	defer func() {
		_ = closeStore()
	}()

	deps := server.Dependencies{
		Store:         store,
		HistoryMonths: cfg.Market.HistoryMonths,
	}
	if cfg.Market.Enabled {
		provider, closeProvider := cfg.Market.NewProvider(logger)
		defer func() {
			_ = closeProvider()
		}()
		deps.Rates = provider

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cfg.Market.CheckCache(pingCtx); err != nil {
			logger.Warn("rate cache unreachable, rates will be fetched on every request",
				zap.String("op", "main"),
				zap.String("redis", cfg.Market.RedisAddress),
				zap.Error(err),
			)
		}
		cancelPing()
	}
	if cfg.RateLimit > 0 {
		limiter := server.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
		defer limiter.Stop()
		deps.Limiter = limiter
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.NewHandler(logger, cfg.UploadSizeBytes(), version, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("driver", driver),
			zap.Bool("market", cfg.Market.Enabled),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case sig := <-quit:
		logger.Info("shutting down server",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
