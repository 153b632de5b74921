package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FuturesLens/internal/analyzer"
	"FuturesLens/internal/collector"
	"FuturesLens/internal/config"
	"FuturesLens/internal/observability"
	"FuturesLens/internal/report"
	"FuturesLens/internal/server"
	"FuturesLens/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	once := flag.String("code", "", "evaluate one instrument code, print the signal table and exit")
	csvPath := flag.String("csv", "", "evaluate a local CSV file, print the signal table and exit")
	flag.Parse()

	log.Println("[INFO] FuturesLens starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewSinaFetcher(cfg.DataSource.HistoryURL, cfg.DataSource.QuoteURL, cfg.Proxy, cfg.Timeout())
	}
	breaker := collector.NewBreakerFetcher(fetcher, collector.BreakerConfig{
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
	})
	log.Printf("[INFO] data source: %s", fetcher.Name())

	clock, err := collector.NewSessionClock(cfg.Session.Timezone, cfg.Session.CutoverCron)
	if err != nil {
		log.Fatalf("[FATAL] session clock: %v", err)
	}
	historyStart, _ := cfg.HistoryStart()

	col := collector.NewCollector(breaker, clock, historyStart)
	cache := store.NewFileCache(cfg.Cache.Dir)
	an := analyzer.NewAnalyzer(col, cache)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once != "" || *csvPath != "" {
		if err := runOnce(ctx, an, *once, *csvPath); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		return
	}

	metrics := observability.GetMetrics()
	handler := server.NewHandler(an, cache, breaker, metrics)
	// leave room for both provider calls plus rendering
	router := server.NewRouter(handler, 2*cfg.Timeout()+10*time.Second)

	log.Printf("[INFO] FuturesLens is running on %s. Press Ctrl+C to stop.", cfg.Server.Addr)
	if err := server.New(cfg.Server.Addr, router).Run(ctx); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	log.Println("[INFO] FuturesLens stopped")
}

func runOnce(ctx context.Context, an *analyzer.Analyzer, code, csvPath string) error {
	var src analyzer.Source = analyzer.FetchByCode{Code: code}
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		bars, err := store.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("read csv %s: %w", csvPath, err)
		}
		src = analyzer.UploadedTable{Name: csvPath, Bars: bars}
	}

	res, err := an.Evaluate(ctx, src)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	fmt.Println(report.FormatSummary(res))
	return nil
}
