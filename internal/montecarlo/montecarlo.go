package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/types"
)

// Config controls one resampling run. Seed makes the run reproducible:
// every replay derives its own RNG from Seed and the replay index, so
// results do not depend on worker scheduling. Callers that want
// non-deterministic runs pick a random seed themselves; the resampler
// never does.
type Config struct {
	NumSimulations  int     `json:"num_simulations"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Seed            int64   `json:"seed"`
	Workers         int     `json:"workers,omitempty"`
	HistogramBins   int     `json:"histogram_bins,omitempty"`
}

// DefaultConfig returns the standard resampling setup.
func DefaultConfig() Config {
	return Config{
		NumSimulations:  1000,
		ConfidenceLevel: 0.95,
		HistogramBins:   20,
	}
}

// Validate reports configuration errors at construction time.
func (c Config) Validate() error {
	if c.NumSimulations <= 0 {
		return fmt.Errorf("%w: num simulations must be positive, got %d", types.ErrInvalidConfiguration, c.NumSimulations)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("%w: confidence level must be in (0, 1), got %f", types.ErrInvalidConfiguration, c.ConfidenceLevel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", types.ErrInvalidConfiguration, c.Workers)
	}
	if c.HistogramBins < 0 {
		return fmt.Errorf("%w: histogram bins must not be negative, got %d", types.ErrInvalidConfiguration, c.HistogramBins)
	}
	return nil
}

// Resampler replays a closed-trade sequence in randomized orders to
// estimate how much of the observed outcome is ordering luck.
type Resampler struct {
	cfg Config
}

// New creates a resampler, validating the configuration eagerly.
func New(cfg Config) (*Resampler, error) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.HistogramBins == 0 {
		cfg.HistogramBins = 20
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resampler{cfg: cfg}, nil
}

// Run executes NumSimulations independent replays, each against a
// fresh Fisher-Yates permutation of the trade list.
func (r *Resampler) Run(ctx context.Context, trades []types.Trade, initialCapital float64) (*types.MonteCarloReport, error) {
	return r.run(ctx, trades, initialCapital, 1)
}

// RunSequential shuffles contiguous blocks of blockSize trades instead
// of individual trades, preserving local streak structure while still
// randomizing macro-ordering.
func (r *Resampler) RunSequential(ctx context.Context, trades []types.Trade, initialCapital float64, blockSize int) (*types.MonteCarloReport, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: block size must be at least 1, got %d", types.ErrInvalidConfiguration, blockSize)
	}
	return r.run(ctx, trades, initialCapital, blockSize)
}

func (r *Resampler) run(ctx context.Context, trades []types.Trade, initialCapital float64, blockSize int) (*types.MonteCarloReport, error) {
	if len(trades) == 0 {
		return nil, types.ErrNoTrades
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %f", types.ErrInvalidConfiguration, initialCapital)
	}

	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
	}
	blocks := partition(pnls, blockSize)

	logger := log.With().
		Int("num_simulations", r.cfg.NumSimulations).
		Int("num_trades", len(trades)).
		Int("block_size", blockSize).
		Int64("seed", r.cfg.Seed).
		Logger()
	logger.Debug().Msg("starting resampling run")
	started := time.Now()

	results := make([]types.SimulationResult, r.cfg.NumSimulations)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.replay(blocks, initialCapital, idx)
			}
		}()
	}

	var runErr error
feed:
	for i := 0; i < r.cfg.NumSimulations; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if runErr != nil {
		logger.Warn().Err(runErr).Msg("resampling run cancelled")
		return nil, runErr
	}

	report := analyzeResults(results, initialCapital, r.cfg)
	report.ReportID = "MCR_" + uuid.New().String()
	report.NumTrades = len(trades)
	if blockSize > 1 {
		report.BlockSize = blockSize
	}

	logger.Info().
		Dur("elapsed", time.Since(started)).
		Float64("ruin_probability", report.RuinProbability).
		Float64("profit_probability", report.ProfitProbability).
		Msg("resampling run completed")
	return report, nil
}

// replay shuffles the block order with a replay-local RNG and applies
// the PnL sequence against the starting capital. The replay stops the
// moment capital reaches zero or below; the remaining trades in that
// permutation are not applied.
func (r *Resampler) replay(blocks [][]float64, initialCapital float64, index int) types.SimulationResult {
	rng := rand.New(rand.NewSource(r.cfg.Seed + int64(index)))

	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	capital := initialCapital
	peak := initialCapital
	maxDrawdown := 0.0
	path := make([]float64, 1, totalLen(blocks)+1)
	path[0] = initialCapital
	executed := 0
	ruined := false

replay:
	for _, bi := range order {
		for _, pnl := range blocks[bi] {
			capital += pnl
			executed++
			path = append(path, capital)
			if capital > peak {
				peak = capital
			}
			if dd := (peak - capital) / peak * 100; dd > maxDrawdown {
				maxDrawdown = dd
			}
			if capital <= 0 {
				ruined = true
				break replay
			}
		}
	}

	return types.SimulationResult{
		EquityPath:     path,
		FinalCapital:   capital,
		FinalReturnPct: (capital - initialCapital) / initialCapital * 100,
		MaxDrawdownPct: maxDrawdown,
		Ruined:         ruined,
		TradesExecuted: executed,
	}
}

func partition(pnls []float64, blockSize int) [][]float64 {
	if blockSize <= 1 {
		blocks := make([][]float64, len(pnls))
		for i := range pnls {
			blocks[i] = pnls[i : i+1]
		}
		return blocks
	}
	var blocks [][]float64
	for start := 0; start < len(pnls); start += blockSize {
		end := start + blockSize
		if end > len(pnls) {
			end = len(pnls)
		}
		blocks = append(blocks, pnls[start:end])
	}
	return blocks
}

func totalLen(blocks [][]float64) int {
	n := 0
	for _, b := range blocks {
		n += len(b)
	}
	return n
}
