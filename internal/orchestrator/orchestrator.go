// Package orchestrator runs a complete simulation request.
// It coordinates: trade loading → sampling pools → trials → aggregation → persistence
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"prop-simulator/internal/account"
	"prop-simulator/internal/cache"
	"prop-simulator/internal/domain"
	"prop-simulator/internal/idhash"
	"prop-simulator/internal/metrics"
	"prop-simulator/internal/observability"
	"prop-simulator/internal/reporting"
	"prop-simulator/internal/simulation"
	"prop-simulator/internal/storage"
	"prop-simulator/internal/tradedata"
	"prop-simulator/internal/trader"
)

// generatorStream is the PCG stream used for synthetic trades. Trial i
// uses stream i, so the generator takes the far end of the range.
const generatorStream = ^uint64(0)

// ProgressFunc receives trial progress for a run.
type ProgressFunc func(runID string, completed, total int)

// Orchestrator coordinates a simulation run.
// Flow: validate → load trades → pools → run ID → cache → trials → aggregate → persist
type Orchestrator struct {
	// Stores (optional)
	runStore   storage.RunStore
	trialStore storage.TrialResultStore
	cache      cache.RunCache

	metrics    *observability.Metrics
	onProgress ProgressFunc
	now        func() time.Time

	logger  *log.Logger
	verbose bool
}

// Options for creating Orchestrator.
type Options struct {
	// Optional stores; nil skips persistence
	RunStore         storage.RunStore
	TrialResultStore storage.TrialResultStore

	// Optional cache consulted for seeded requests
	Cache cache.RunCache

	Metrics    *observability.Metrics // nil = observability.DefaultMetrics
	OnProgress ProgressFunc
	Now        func() time.Time // nil = time.Now().UTC()

	Logger  *log.Logger
	Verbose bool // per-day trader logging
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		runStore:   opts.RunStore,
		trialStore: opts.TrialResultStore,
		cache:      opts.Cache,
		metrics:    m,
		onProgress: opts.OnProgress,
		now:        now,
		logger:     opts.Logger,
		verbose:    opts.Verbose,
	}
}

// Result contains the outcome of one request.
type Result struct {
	Run    *domain.SimulationRun
	Trials []domain.TrialResult // nil when served from cache
	Cached bool
}

// Run executes a simulation request.
// Phases:
//  1. Validate config and resolve the account type
//  2. Load or generate trades and build sampling pools
//  3. Compute run ID; seeded requests may be served from cache or the run store
//  4. Run trials
//  5. Aggregate, build histogram
//  6. Persist run and trials, fill cache
func (o *Orchestrator) Run(ctx context.Context, cfg domain.SimulationConfig) (*Result, error) {
	start := time.Now()

	// Phase 1: Validate
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	accountType, err := account.ParseType(cfg.AccountType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	cfg.AccountType = accountType.String()

	// An unseeded request still records the seed it ran with, so any run can be replayed.
	seeded := cfg.Seed != 0
	if !seeded {
		cfg.Seed = rand.Uint64()
	}

	// Phase 2: Trades
	o.log("Phase 2: Loading trades...")
	records, data, err := o.loadTrades(cfg)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	pool, err := simulation.NewPool(tradedata.Trades(records), tradedata.TradesPerDay(records))
	if err != nil {
		return nil, fmt.Errorf("build sampling pool: %w", err)
	}
	o.log("  Loaded %d trades over %d days", pool.TradeCount(), pool.DayCount())

	// Phase 3: Run ID and cache
	runID, err := idhash.ComputeRunID(cfg, data)
	if err != nil {
		return nil, fmt.Errorf("compute run id: %w", err)
	}
	if seeded {
		if run := o.lookup(ctx, runID); run != nil {
			o.log("Phase 3: Run %s served from cache", runID)
			o.metrics.RecordRun(cfg.AccountType, observability.StatusCached, 0)
			return &Result{Run: run, Cached: true}, nil
		}
	}

	o.metrics.RunsInFlight.Inc()
	defer o.metrics.RunsInFlight.Dec()

	// Phase 4: Trials
	o.log("Phase 4: Running %d trials on %s...", cfg.Iterations, cfg.AccountType)
	runner := simulation.NewRunner(simulation.RunnerOptions{
		Pool:        pool,
		AccountType: accountType,
		Trader: trader.Options{
			MaxTradesPerDay:   cfg.MaxTradesPerDay,
			DailyProfitTarget: cfg.DailyProfitTarget,
			DailyStopLoss:     cfg.DailyStopLoss,
			MaxSimulationDays: cfg.MaxSimulationDays,
			MaxPayouts:        cfg.MaxPayouts,
		},
		Iterations: cfg.Iterations,
		Workers:    cfg.Workers,
		Seed:       cfg.Seed,
		OnProgress: o.progressFor(runID),
		Logger:     o.logger,
		Verbose:    o.verbose,
	})
	trials, err := runner.Run(ctx)
	if err != nil {
		o.metrics.RecordRun(cfg.AccountType, observability.StatusError, time.Since(start))
		return nil, fmt.Errorf("run trials: %w", err)
	}

	// Phase 5: Aggregate
	summary, err := metrics.Aggregate(trials, cfg.ConditionEndState)
	if err != nil {
		o.metrics.RecordRun(cfg.AccountType, observability.StatusError, time.Since(start))
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	for _, w := range summary.Warnings {
		o.warn("%s", w)
	}

	stored := cfg
	stored.CSVData = ""
	run := &domain.SimulationRun{
		RunID:     runID,
		CreatedAt: o.now(),
		Config:    stored,
		Summary:   *summary,
	}
	if cfg.Histogram {
		run.Histogram = reporting.Histogram(summary.FinalBalances, reporting.DefaultHistogramBins)
	}

	// Phase 6: Persist
	if err := o.persist(ctx, run, trials); err != nil {
		o.metrics.RecordRun(cfg.AccountType, observability.StatusError, time.Since(start))
		return nil, err
	}
	if seeded && o.cache != nil {
		if err := o.cache.Set(ctx, run); err != nil {
			o.warn("cache set %s: %v", runID, err)
		}
	}

	o.metrics.RecordTrials(trials)
	o.metrics.RecordRun(cfg.AccountType, observability.StatusSuccess, time.Since(start))
	o.log("Run %s completed in %s", runID, time.Since(start).Round(time.Millisecond))

	return &Result{Run: run, Trials: trials}, nil
}

// loadTrades returns trade records plus the raw bytes they were parsed from
// (nil for synthetic trades). Inline CSV data takes precedence over a file.
func (o *Orchestrator) loadTrades(cfg domain.SimulationConfig) ([]domain.TradeRecord, []byte, error) {
	switch {
	case cfg.CSVData != "":
		records, err := tradedata.ReadCSV(strings.NewReader(cfg.CSVData), cfg.Multiplier, cfg.RoundTripCost)
		return records, []byte(cfg.CSVData), err

	case cfg.CSVFile != "":
		data, err := os.ReadFile(cfg.CSVFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read trade file: %w", err)
		}
		records, err := tradedata.ReadCSV(bytes.NewReader(data), cfg.Multiplier, cfg.RoundTripCost)
		return records, data, err

	default:
		rng := rand.New(rand.NewPCG(cfg.Seed, generatorStream))
		records := tradedata.Generate(rng, tradedata.GeneratorParams{
			AvgTradesPerDay: *cfg.AvgTradesPerDay,
			StopLoss:        *cfg.StopLoss,
			TakeProfit:      *cfg.TakeProfit,
			WinPercentage:   *cfg.WinPercentage,
			Multiplier:      cfg.Multiplier,
			RoundTripCost:   cfg.RoundTripCost,
		})
		if len(records) == 0 {
			return nil, nil, tradedata.ErrNoTrades
		}
		return records, nil, nil
	}
}

// lookup returns a previously computed run from the cache or the run store.
func (o *Orchestrator) lookup(ctx context.Context, runID string) *domain.SimulationRun {
	if o.cache != nil {
		run, err := o.cache.Get(ctx, runID)
		o.metrics.RecordCacheLookup(err == nil)
		if err == nil {
			return run
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.warn("cache get %s: %v", runID, err)
		}
	}

	if o.runStore != nil {
		run, err := o.runStore.GetByID(ctx, runID)
		if err == nil {
			if o.cache != nil {
				if err := o.cache.Set(ctx, run); err != nil {
					o.warn("cache set %s: %v", runID, err)
				}
			}
			return run
		}
		if !errors.Is(err, storage.ErrNotFound) {
			o.warn("run store get %s: %v", runID, err)
		}
	}
	return nil
}

// persist writes the run and its trials. An existing run_id is not an error:
// identical seeded requests may race to completion.
func (o *Orchestrator) persist(ctx context.Context, run *domain.SimulationRun, trials []domain.TrialResult) error {
	if o.runStore != nil {
		start := time.Now()
		err := o.runStore.Insert(ctx, run)
		o.metrics.RecordDBQuery("runs", "insert", time.Since(start).Seconds(), ignoreDuplicate(err))
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist run: %w", err)
		}
	}

	if o.trialStore != nil {
		start := time.Now()
		err := o.trialStore.InsertBulk(ctx, run.RunID, trials)
		o.metrics.RecordDBQuery("trials", "insert_bulk", time.Since(start).Seconds(), ignoreDuplicate(err))
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist trials: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) progressFor(runID string) simulation.ProgressFunc {
	if o.onProgress == nil {
		return nil
	}
	return func(completed, total int) {
		o.onProgress(runID, completed, total)
	}
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose && o.logger != nil {
		o.logger.Printf(format, args...)
	}
}

func (o *Orchestrator) warn(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Printf("WARN: "+format, args...)
	}
}
