package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/nostr-comb/app/api"
	"github.com/lysyi3m/nostr-comb/app/cfg"
	"github.com/lysyi3m/nostr-comb/app/config"
	"github.com/lysyi3m/nostr-comb/app/database"
	"github.com/lysyi3m/nostr-comb/app/mirror"
	"github.com/lysyi3m/nostr-comb/app/nostr"
	"github.com/lysyi3m/nostr-comb/app/scraper"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting Nostr Comb", "version", appCfg.Version, "dry_run", appCfg.DryRun)

	loader := config.NewLoader(appCfg.SitesDir)
	sites, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load site configurations: %w", err)
	}
	if len(sites) == 0 {
		return fmt.Errorf("no site configurations found in %s", appCfg.SitesDir)
	}
	slog.Info("Loaded site configurations", "count", len(sites))

	fetcher := scraper.NewFetcher(appCfg.UserAgent)

	var repo database.PublicationRepositoryInterface
	var publisher mirror.PublisherInterface

	if !appCfg.DryRun {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		migrationVersion, dirty, err := database.RunMigrations(db)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", migrationVersion, "dirty", dirty)

		repo = database.NewPublicationRepository(db)

		pool := nostr.NewRelayPool(ctx)

		signer, err := nostr.NewSigner(ctx, appCfg.NostrKey, pool)
		if err != nil {
			return fmt.Errorf("failed to set up signer: %w", err)
		}

		p := nostr.NewPublisher(pool)
		if err := p.Init(ctx, signer); err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		publisher = p
	}

	runner, err := mirror.NewRunner(sites, fetcher, publisher, repo, mirror.Options{
		Limit:            appCfg.Limit,
		MinContentLength: appCfg.MinContentLength,
		Relays:           appCfg.Relays,
		Delay:            time.Duration(appCfg.Delay) * time.Second,
		SkipExisting:     appCfg.SkipExisting,
		DryRun:           appCfg.DryRun,
	})
	if err != nil {
		return err
	}

	if appCfg.Serve {
		return runDaemon(ctx, appCfg, runner, repo)
	}

	cycle := runner.Run(ctx)
	slog.Info("Mirror run complete",
		"published", cycle.Published(),
		"duration", cycle.FinishedAt.Sub(cycle.StartedAt).Round(time.Millisecond))

	return nil
}

func runDaemon(ctx context.Context, appCfg *cfg.Cfg, runner *mirror.Runner, repo database.PublicationRepositoryInterface) error {
	handler := api.NewHandler(repo, runner, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting status server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	ticker := time.NewTicker(time.Duration(appCfg.Interval) * time.Second)
	defer ticker.Stop()

	runner.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down gracefully")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			return nil

		case err := <-serverErrChan:
			return err

		case <-ticker.C:
			runner.Run(ctx)
		}
	}
}
