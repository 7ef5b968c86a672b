package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlockCodeLab/sound/internal/asset"
	"github.com/BlockCodeLab/sound/internal/config"
	"github.com/BlockCodeLab/sound/internal/metrics"
	"github.com/BlockCodeLab/sound/internal/record"
	"github.com/BlockCodeLab/sound/internal/server"
	"github.com/BlockCodeLab/sound/internal/studio"
	"github.com/BlockCodeLab/sound/internal/transcode"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "sound-editor-service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	noMic := flag.Bool("no-mic", false, "Disable microphone capture")
	flag.Parse()

	// Load configuration, falling back to built-in defaults when the
	// default path is absent
	var cfg *config.Config
	if _, err := os.Stat(*configPath); os.IsNotExist(err) && *configPath == defaultConfigPath {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("config_path", *configPath),
	)
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("http_address", cfg.HTTP.Address),
		slog.Int("default_bitrate", cfg.Transcode.DefaultBitrate),
		slog.Int("record_sample_rate", cfg.Recording.SampleRate),
		slog.Int("record_bitrate", cfg.Recording.Bitrate),
		slog.Duration("record_ceiling", cfg.Recording.GetCeilingDuration()),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the transcoder
	transcoder := transcode.New(transcode.Config{
		BlockSize:    cfg.Transcode.BlockSize,
		SliceBudget:  cfg.Transcode.GetSliceBudgetDuration(),
		TickInterval: cfg.Transcode.GetTickIntervalDuration(),
	}, logger)

	// Initialize the remote fetcher
	fetcher := studio.NewFetcher(studio.FetcherConfig{
		Timeout:       cfg.Fetch.GetTimeoutDuration(),
		MaxRetries:    cfg.Fetch.MaxRetries,
		MaxConcurrent: cfg.Fetch.MaxConcurrent,
		MaxBytes:      cfg.Fetch.MaxBytes,
	}, logger)

	// Microphone capture is optional; the service runs without it
	var device record.CaptureDevice
	if !*noMic {
		device = record.NewMic(cfg.Recording.SampleRate, logger)
		logger.Info("Microphone capture enabled",
			slog.Int("sample_rate", cfg.Recording.SampleRate))
	}

	// Initialize the engine
	engine := studio.New(studio.Options{
		Store:            asset.NewStore(),
		Transcoder:       transcoder,
		Device:           device,
		RecordCeiling:    cfg.Recording.GetCeilingDuration(),
		Fetcher:          fetcher,
		Metrics:          appMetrics,
		Logger:           logger,
		DefaultBitrate:   cfg.Transcode.DefaultBitrate,
		RecordBitrate:    cfg.Recording.Bitrate,
		RecordSampleRate: cfg.Recording.SampleRate,
	})
	logger.Info("Engine initialized")

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:    cfg.HTTP.Port,
		Address: cfg.HTTP.Address,
	}, engine, appMetrics, logger)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop any in-flight recording so the take is persisted before exit
	engine.StopRecording()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
