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

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/logging"
	"github.com/me/schedsim/internal/metrics"
	"github.com/me/schedsim/internal/registry"
	"github.com/me/schedsim/internal/server"
	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to a YAML server config file")
	addr := flag.String("addr", "", "Listen address (default \":8080\")")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	backend := flag.String("store", "", "Process registry backend: memory, sqlite, redis")
	dbPath := flag.String("db", "", "SQLite database path (default ~/.schedsim/schedsim.db)")
	redisAddr := flag.String("redis", "", "Redis address for the redis backend")
	quantum := flag.Int("quantum", 0, "Default Round-Robin quantum")
	maxSlices := flag.Int("max-slices", -1, "Reject runs that could exceed this many slices (0 disables the limit)")
	otlp := flag.String("otlp-endpoint", "", "OTLP gRPC endpoint for traces (disabled when empty)")
	noMetrics := flag.Bool("no-metrics", false, "Do not expose /metrics")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	// Defaults < config file < environment < flags.
	if *configFile != "" {
		if err := config.LoadFile(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	config.ApplyEnv(&cfg)
	setIf(&cfg.Addr, *addr)
	setIf(&cfg.LogLevel, *logLevel)
	setIf(&cfg.LogFormat, *logFormat)
	setIf(&cfg.Store.Backend, *backend)
	setIf(&cfg.Store.DBPath, *dbPath)
	setIf(&cfg.Store.RedisAddr, *redisAddr)
	setIf(&cfg.Telemetry.OTLPEndpoint, *otlp)
	if *quantum != 0 {
		cfg.DefaultQuantum = *quantum
	}
	if *maxSlices >= 0 {
		cfg.MaxSlices = *maxSlices
	}
	if *noMetrics {
		cfg.Metrics = false
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store ready", "backend", cfg.Store.Backend)

	var opts []server.Option
	opts = append(opts, server.WithVersion(version))

	if cfg.Metrics {
		m, err := metrics.New("schedsim", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init metrics: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, server.WithMetrics(m))
	}

	tracing, err := telemetry.Setup(ctx, cfg.Telemetry, version, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init telemetry: %v\n", err)
		os.Exit(1)
	}
	opts = append(opts, server.WithTelemetry(tracing))

	reg := registry.New(st, logger)
	srv := server.New(cfg, reg, logger, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
