// Command simulate runs a Monte Carlo simulation of a funded prop-firm account.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"prop-simulator/internal/account"
	"prop-simulator/internal/cache"
	"prop-simulator/internal/domain"
	"prop-simulator/internal/orchestrator"
	"prop-simulator/internal/reporting"
	"prop-simulator/internal/storage/stores"
)

func main() {
	// Load .env file if exists; real env vars win
	_ = godotenv.Load()

	// Trade source
	var csvFile string
	flag.StringVar(&csvFile, "csv-file", "", "Trade CSV: datetime (YYYYMMDD HH:MM:SS), return, max_opposite_excursion")
	flag.StringVar(&csvFile, "f", "", "Shorthand for --csv-file")

	// Synthetic generator (used when no CSV is given)
	var avgTradesPerDay, stopLoss, takeProfit, winPercentage optionalFloat
	flag.Var(&avgTradesPerDay, "avg-trades-per-day", "Synthetic: mean trades per day (Poisson)")
	flag.Var(&stopLoss, "stop-loss", "Synthetic: stop loss distance")
	flag.Var(&takeProfit, "take-profit", "Synthetic: take profit distance")
	flag.Var(&winPercentage, "win-percentage", "Synthetic: win probability in percent (0-100)")

	// Trader limits
	var maxTradesPerDay optionalInt
	var dailyProfitTarget, dailyStopLoss optionalFloat
	flag.Var(&maxTradesPerDay, "max-trades-per-day", "Stop trading after N trades per day")
	flag.Var(&dailyProfitTarget, "daily-profit-target", "Stop trading once daily P&L reaches this (positive)")
	flag.Var(&dailyStopLoss, "daily-stop-loss", "Stop trading once daily P&L falls to this (negative)")

	// Simulation
	iterations := flag.Int("iterations", 10000, "Number of trials")
	maxSimulationDays := flag.Int("max-simulation-days", 365, "Trading days before a trial times out")
	maxPayouts := flag.Int("max-payouts", 12, "Payouts before a trial ends as MaxPayoutsReached")
	accountType := flag.String("account-type", envOr(os.LookupEnv, "ACCOUNT_TYPE", "ftt:gt"), "Account type as company:tier ("+strings.Join(account.Names(), ", ")+")")
	multiplier := flag.Float64("multiplier", 1.0, "Multiplier applied to trade values")
	roundTripCost := flag.Float64("round-trip-cost", 0, "Cost subtracted from every trade value")
	condition := flag.String("condition-end-state", "all", "Condition statistics on: all, busted, timeout, maxpayouts")
	seed := flag.Uint64("seed", 0, "Random seed; 0 = nondeterministic")
	workers := flag.Int("workers", 0, "Parallel workers; 0 = GOMAXPROCS")
	histogram := flag.Bool("histogram", false, "Compute a 50-bin histogram of conditioned final balances")

	// Storage
	postgresDSN := flag.String("postgres-dsn", envOr(os.LookupEnv, "POSTGRES_DSN", ""), "PostgreSQL connection string for runs")
	clickhouseDSN := flag.String("clickhouse-dsn", envOr(os.LookupEnv, "CLICKHOUSE_DSN", ""), "ClickHouse connection string for per-trial results")
	sqlitePath := flag.String("sqlite-path", envOr(os.LookupEnv, "SQLITE_PATH", ""), "SQLite file for runs when no PostgreSQL DSN is given")
	migrate := flag.Bool("migrate", false, "Apply PostgreSQL/ClickHouse migrations on start")
	redisAddr := flag.String("redis-addr", envOr(os.LookupEnv, "REDIS_ADDR", ""), "Redis address for caching seeded runs")

	// Output
	outputJSON := flag.Bool("json", false, "Output run as JSON")
	reportPath := flag.String("report", "", "Write a Markdown report to this path")
	trialsCSV := flag.String("trials-csv", "", "Write per-trial results as CSV to this path")
	verbose := flag.Bool("verbose", false, "Verbose logging (per-day trader detail)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	cfg := domain.SimulationConfig{
		CSVFile:           csvFile,
		Iterations:        *iterations,
		MaxTradesPerDay:   maxTradesPerDay.value,
		DailyProfitTarget: dailyProfitTarget.value,
		DailyStopLoss:     dailyStopLoss.value,
		RoundTripCost:     *roundTripCost,
		AvgTradesPerDay:   avgTradesPerDay.value,
		StopLoss:          stopLoss.value,
		TakeProfit:        takeProfit.value,
		WinPercentage:     winPercentage.value,
		MaxSimulationDays: *maxSimulationDays,
		MaxPayouts:        *maxPayouts,
		AccountType:       *accountType,
		Multiplier:        *multiplier,
		Histogram:         *histogram,
		ConditionEndState: *condition,
		Seed:              *seed,
		Workers:           *workers,
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping after in-flight trials...", sig)
		cancel()
	}()

	// Create stores
	st, cleanup, err := stores.Open(ctx, stores.Config{
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		SqlitePath:    *sqlitePath,
		Migrate:       *migrate,
	})
	if err != nil {
		logger.Fatalf("open stores: %v", err)
	}
	defer cleanup()

	opts := orchestrator.Options{
		RunStore:         st.Runs,
		TrialResultStore: st.Trials,
		OnProgress:       progressPrinter(*iterations),
		Logger:           logger,
		Verbose:          *verbose,
	}
	if *redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, *redisAddr, cache.DefaultTTL)
		if err != nil {
			logger.Printf("WARN: redis unavailable, continuing without cache: %v", err)
		} else {
			defer rc.Close()
			opts.Cache = rc
		}
	}

	logger.Printf("Simulating %d trials on %s (runs: %s, trials: %s)",
		cfg.Iterations, cfg.AccountType, st.RunBackend, st.TrialBackend)

	start := time.Now()
	res, err := orchestrator.New(opts).Run(ctx, cfg)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Fatal("simulation cancelled")
		}
		logger.Fatalf("simulation failed: %v", err)
	}
	if res.Cached {
		logger.Printf("Run %s served from cache", res.Run.RunID)
	} else {
		logger.Printf("Run %s finished in %s", res.Run.RunID, time.Since(start).Round(time.Millisecond))
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(res.Run, "", "  ")
		fmt.Println(string(output))
	} else {
		printRun(res.Run)
	}

	if *reportPath != "" {
		report := reporting.NewGenerator(st.Runs).FromRun(res.Run)
		if err := os.WriteFile(*reportPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
			logger.Fatalf("write report: %v", err)
		}
		logger.Printf("Report written to %s", *reportPath)
	}
	if *trialsCSV != "" {
		if res.Trials == nil {
			logger.Printf("WARN: run served from cache, per-trial results unavailable; skipping %s", *trialsCSV)
		} else if err := os.WriteFile(*trialsCSV, []byte(reporting.RenderTrialsCSV(res.Trials)), 0o644); err != nil {
			logger.Fatalf("write trials csv: %v", err)
		}
	}
}

// progressPrinter redraws a single progress line on stderr at each whole percent.
func progressPrinter(total int) orchestrator.ProgressFunc {
	return func(_ string, completed, _ int) {
		fmt.Fprintf(os.Stderr, "\rProgress: %3d%% (%d/%d)", completed*100/total, completed, total)
	}
}

// printRun outputs a human-readable run summary.
func printRun(run *domain.SimulationRun) {
	s := run.Summary

	fmt.Println()
	fmt.Println("=== Simulation Result ===")
	fmt.Printf("Run ID:             %s\n", run.RunID)
	fmt.Printf("Account Type:       %s\n", run.Config.AccountType)
	fmt.Printf("Iterations:         %d\n", s.Iterations)
	fmt.Printf("Seed:               %s\n", strconv.FormatUint(run.Config.Seed, 10))
	fmt.Println()

	fmt.Println("End States:")
	for _, state := range domain.AllEndStates {
		fmt.Printf("  %-18s %7d (%6.2f%%)\n", state+":", s.EndStateCounts[state], s.EndStateRates[state]*100)
	}
	fmt.Println()

	c := s.Conditioned
	fmt.Printf("Final Balance (condition: %s, %d trials):\n", s.ConditionEndState, c.Count)
	fmt.Printf("  Mean:             %.2f\n", c.MeanBalance)
	fmt.Printf("  Median:           %.2f\n", c.MedianBalance)
	fmt.Printf("  Std Dev:          %.2f\n", c.StdDev)
	fmt.Printf("  Mean Abs Dev:     %.2f\n", c.MeanAbsDeviation)
	fmt.Printf("  IQR:              %.2f\n", c.IQR)
	fmt.Printf("  Median Abs Dev:   %.2f\n", c.MedianAbsDeviation)
	fmt.Printf("  Mean Days:        %.1f\n", c.MeanDays)
	fmt.Printf("  Positive Balance: %.2f%%\n", c.PositiveBalanceRate*100)

	for _, w := range s.Warnings {
		fmt.Printf("\nWarning: %s\n", w)
	}
}
