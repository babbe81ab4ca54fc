// Package simulation runs independent Monte Carlo trials of a funded account.
package simulation

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"prop-simulator/internal/account"
	"prop-simulator/internal/domain"
	"prop-simulator/internal/trader"
)

// Runner errors
var (
	ErrNoPool       = errors.New("runner has no sampling pool")
	ErrNoIterations = errors.New("iterations must be positive")
	ErrNoMaxDays    = errors.New("max simulation days must be positive")
)

// ProgressFunc receives completed and total trial counts.
// It may be called concurrently from worker goroutines.
type ProgressFunc func(completed, total int)

// Runner fans trials out across workers.
type Runner struct {
	pool        *Pool
	accountType account.Type
	trader      trader.Options
	iterations  int
	workers     int
	seed        uint64

	onProgress    ProgressFunc
	progressEvery int

	logger  *log.Logger
	verbose bool
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Pool        *Pool
	AccountType account.Type
	Trader      trader.Options // day limits, max days, max payouts
	Iterations  int
	Workers     int    // 0 = GOMAXPROCS
	Seed        uint64 // 0 = nondeterministic

	OnProgress    ProgressFunc
	ProgressEvery int // report every N trials; 0 = every 1% of the run

	Logger  *log.Logger
	Verbose bool // per-day trader logging; very noisy
}

// NewRunner creates a trial runner.
func NewRunner(opts RunnerOptions) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = max(opts.Iterations/100, 1)
	}
	return &Runner{
		pool:          opts.Pool,
		accountType:   opts.AccountType,
		trader:        opts.Trader,
		iterations:    opts.Iterations,
		workers:       workers,
		seed:          opts.Seed,
		onProgress:    opts.OnProgress,
		progressEvery: every,
		logger:        opts.Logger,
		verbose:       opts.Verbose,
	}
}

// Run executes every trial and returns results indexed by trial.
// Cancellation is observed between trials only; a started trial always
// runs to a terminal state.
func (r *Runner) Run(ctx context.Context) ([]domain.TrialResult, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}
	if r.iterations <= 0 {
		return nil, ErrNoIterations
	}
	if r.trader.MaxSimulationDays <= 0 {
		return nil, ErrNoMaxDays
	}
	// Fail fast on a bad selector before spawning workers.
	if _, err := account.New(r.accountType); err != nil {
		return nil, err
	}

	seed := r.seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	results := make([]domain.TrialResult, r.iterations)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := 0; i < r.iterations; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.RunTrial(i, rand.New(rand.NewPCG(seed, uint64(i))))
			if err != nil {
				return err
			}
			results[i] = res

			done := int(completed.Add(1))
			if r.onProgress != nil && (done%r.progressEvery == 0 || done == r.iterations) {
				r.onProgress(done, r.iterations)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.log("completed %d trials with %d workers", r.iterations, r.workers)
	return results, nil
}

// RunTrial drives a single trial to its terminal state.
func (r *Runner) RunTrial(index int, rng *rand.Rand) (domain.TrialResult, error) {
	acct, err := account.New(r.accountType)
	if err != nil {
		return domain.TrialResult{}, err
	}

	opts := r.trader
	if r.verbose {
		opts.Logger = r.logger
	}
	t := trader.New(acct, opts)

	var buf []domain.Trade
	for {
		buf = r.pool.SampleDay(rng, buf)
		if state, done := t.TradeDay(buf); done {
			return domain.TrialResult{
				TrialIndex:     index,
				FinalBalance:   t.Bank(),
				EndState:       state,
				SimulationDays: acct.SimulationDays(),
			}, nil
		}
	}
}

func (r *Runner) log(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
