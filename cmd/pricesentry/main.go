package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricesentry/config"
	"pricesentry/extract"
	"pricesentry/fetch"
	"pricesentry/models"
	"pricesentry/scan"
	"pricesentry/store"
)

func main() {
	configDefault, _ := config.EnvString("PRICESENTRY_CONFIG")

	configPath := flag.String("config", configDefault, "Path to YAML config file")
	runLoop := flag.Bool("run", false, "Run the periodic scan scheduler")
	scanAll := flag.Bool("scan-all", false, "Run one scan cycle over all due targets")
	force := flag.Bool("force", false, "With -scan-all: bypass due computation and scan everything")
	scanTarget := flag.Int64("scan-target", 0, "Force-scan a single target by id")
	testURL := flag.String("test-url", "", "Fetch and extract a URL without persisting anything")
	addName := flag.String("add-target", "", "Add a target with this name (requires -url)")
	addURL := flag.String("url", "", "Target URL for -add-target")
	addInterval := flag.Duration("interval", 0, "Scan interval for -add-target (default from config)")
	history := flag.Int64("history", 0, "Print recent observations for a target id")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Verbose = true
	}

	logger := newLogger(cfg.Verbose)
	slog.SetDefault(logger)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening store", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	fetcher, err := fetch.New(cfg)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	scanner := scan.New(cfg, fetcher, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *addName != "":
		if err := addTarget(ctx, db, cfg, *addName, *addURL, *addInterval); err != nil {
			slog.Error("adding target", slog.Any("error", err))
			os.Exit(1)
		}

	case *testURL != "":
		runTestURL(ctx, scanner, *testURL)

	case *scanTarget != 0:
		if ok := scanner.ScanTarget(ctx, *scanTarget); !ok {
			fmt.Println("scan failed")
			os.Exit(1)
		}
		fmt.Println("scan succeeded")

	case *scanAll:
		summary, err := scanner.ScanAllDue(ctx, *force)
		if err != nil {
			slog.Error("scan cycle failed", slog.Any("error", err))
			os.Exit(1)
		}
		printSummary(summary)

	case *history != 0:
		if err := printHistory(ctx, db, *history); err != nil {
			slog.Error("reading history", slog.Any("error", err))
			os.Exit(1)
		}

	case *runLoop:
		metricsServer := startMetrics(cfg, scanner)
		scanner.RunScheduler(ctx, cfg.CycleInterval)
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
			cancel()
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func addTarget(ctx context.Context, db *store.Store, cfg *config.Config, name, rawURL string, interval time.Duration) error {
	if rawURL == "" {
		return fmt.Errorf("-add-target requires -url")
	}
	if interval <= 0 {
		interval = cfg.DefaultScanInterval
	}
	target := &models.ScanTarget{
		Name:         name,
		URL:          rawURL,
		VendorDomain: extract.ForURL(rawURL).Name(),
		ScanInterval: interval,
		Active:       true,
	}
	if err := db.AddTarget(ctx, target); err != nil {
		return err
	}
	fmt.Printf("added target %d (%s, profile %s)\n", target.ID, target.Name, target.VendorDomain)
	return nil
}

func runTestURL(ctx context.Context, scanner *scan.Scanner, rawURL string) {
	result, profileName, err := scanner.TestURL(ctx, rawURL)
	if err != nil {
		fmt.Printf("profile: %s\nfetch failed: %v\n", profileName, err)
		os.Exit(1)
	}
	encoded, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("profile: %s\n%s\n", profileName, encoded)
}

func printHistory(ctx context.Context, db *store.Store, targetID int64) error {
	observations, err := db.RecentObservations(ctx, targetID, 20)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Println("no observations")
		return nil
	}
	for _, obs := range observations {
		line := fmt.Sprintf("%s  %.2f %s  in_stock=%t",
			obs.ObservedAt.Format(time.RFC3339), obs.Price, obs.Currency, obs.InStock)
		if obs.BidCount != nil {
			line += fmt.Sprintf("  bids=%d", *obs.BidCount)
		}
		fmt.Println(line)
	}
	return nil
}

func printSummary(summary models.CycleSummary) {
	separator := "----------------------------------------"
	fmt.Println(separator)
	fmt.Println("Scan cycle complete")
	fmt.Printf("  Total:    %d\n", summary.Total)
	fmt.Printf("  Success:  %d\n", summary.Success)
	fmt.Printf("  Failed:   %d\n", summary.Failed)
	fmt.Println(separator)
}

func startMetrics(cfg *config.Config, scanner *scan.Scanner) *http.Server {
	if cfg.MetricsAddr == "" || scanner.Metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(scanner.Metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	return server
}

func newLogger(verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
