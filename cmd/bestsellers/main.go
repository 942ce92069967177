package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/amazon-bestsellers/internal/browser"
	"github.com/maltedev/amazon-bestsellers/internal/config"
	"github.com/maltedev/amazon-bestsellers/internal/credentials"
	"github.com/maltedev/amazon-bestsellers/internal/filter"
	"github.com/maltedev/amazon-bestsellers/internal/logging"
	"github.com/maltedev/amazon-bestsellers/internal/observability"
	"github.com/maltedev/amazon-bestsellers/internal/ratelimit"
	"github.com/maltedev/amazon-bestsellers/internal/scraper"
	"github.com/maltedev/amazon-bestsellers/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		server := observability.NewServer(cfg.Metrics.Addr, runID, metrics, logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server shutdown failed", "error", err)
			}
		}()
	}

	browserOpts := &browser.Options{
		Headless:        cfg.Browser.Headless,
		PageLoadTimeout: cfg.Browser.PageLoadTimeout,
		ImplicitWait:    cfg.Browser.ImplicitWait,
		UserAgent:       cfg.Browser.UserAgent,
		ViewportWidth:   cfg.Browser.ViewportWidth,
		ViewportHeight:  cfg.Browser.ViewportHeight,
	}
	launch := func(ctx context.Context) (browser.Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return browser.New(browserOpts, logger)
	}

	opts := scraper.DefaultOptions()
	opts.BaseURL = cfg.Scraper.BaseURL
	opts.MaxProducts = cfg.Scraper.MaxProducts
	opts.LoginAttempts = cfg.Scraper.LoginAttempts

	s := scraper.NewBestSellers(
		opts,
		launch,
		credentials.NewPrompter(),
		filter.NewDiscount(cfg.Scraper.DiscountThreshold, logger),
		logger,
	)
	s.SetMetrics(metrics)
	s.SetDelays(
		ratelimit.NewJitter(cfg.Scraper.ProductDelayMin, cfg.Scraper.ProductDelayMax),
		ratelimit.NewJitter(cfg.Scraper.CategoryDelayMin, cfg.Scraper.CategoryDelayMax),
		ratelimit.NewJitter(cfg.Scraper.LoginRetryDelay, cfg.Scraper.LoginRetryDelay),
	)

	logger.Info("starting run", "categories", len(cfg.Categories), "format", cfg.Output.Format)
	metrics.SetState(observability.StateLoggingIn)

	if err := s.Run(ctx, cfg.Categories); err != nil {
		if errors.Is(err, scraper.ErrLoginFailed) {
			metrics.SetState(observability.StateFailed)
			return err
		}
		// Interrupted runs still save what was collected.
		logger.Warn("run interrupted", "error", err)
	}

	metrics.SetState(observability.StateSaving)
	path, err := storage.Save(cfg.Output.Dir, cfg.Output.Format, s.Records(), time.Now())
	if err != nil {
		metrics.SetState(observability.StateFailed)
		logger.Error("failed to save data", "error", err)
		return err
	}

	metrics.SetState(observability.StateFinished)
	logger.Info("data saved", "path", path, "records", len(s.Records()))
	return nil
}
