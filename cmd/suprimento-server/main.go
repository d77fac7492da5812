package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/acquire"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/config"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/extract"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/odt"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/server"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process-wide structured logger.
func setupLogging(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		logger.Debug("starting", "config", cfg.String())
	}

	acquirer := acquire.NewAcquirer(acquire.Config{
		Pdftoppm:         cfg.Pdftoppm,
		Tesseract:        cfg.Tesseract,
		Lang:             cfg.Lang,
		DPI:              cfg.DPI,
		HeaderDPI:        cfg.HeaderDPI,
		FooterDPI:        cfg.FooterDPI,
		HeaderFrac:       cfg.HeaderFrac,
		FooterFrac:       cfg.FooterFrac,
		OCRWordThreshold: cfg.OCRWordThreshold,
		OCRWorkers:       cfg.OCRWorkers,
		PSM:              cfg.PSM,
	}, logger)

	service := extract.NewService(acquirer, logger)
	generator := odt.NewGenerator(cfg.TemplatePath, logger)
	srv := server.New(cfg, service, generator, logger)

	// Shut down on SIGINT/SIGTERM; the server drains in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Suprimento de Óbito Server\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
