package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/gateway"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
		healthURL   = flag.String("health-url", "http://localhost:8080/health", "URL probed by -health-check")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("edge-privacy-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck(*healthURL)
		return
	}

	store, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := store.Current()

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: true,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting edge-privacy-gateway",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.String("config_file", store.ConfigFileUsed()),
		zap.Int("port", cfg.Server.Port),
	)

	gateway.Version = version

	// Credentials are looked up per request, so a reload takes effect without a restart.
	// Port, routes and detectors are read once at startup.
	store.Watch(
		func(*config.Config) { log.Info("Configuration reloaded") },
		func(err error) { log.Warn("Ignoring invalid configuration change", zap.Error(err)) },
	)

	server, err := gateway.New(store, log)
	if err != nil {
		log.Fatal("Failed to create gateway server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		stop()
		_ = log.Close()
		os.Exit(1)
	}

	log.Info("Server shutdown complete")
}

// performHealthCheck performs a health check against a running gateway
func performHealthCheck(url string) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
