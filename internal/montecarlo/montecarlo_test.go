package montecarlo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcvnrln/papersim/internal/types"
)

func tradesFromPnLs(pnls ...float64) []types.Trade {
	trades := make([]types.Trade, len(pnls))
	for i, pnl := range pnls {
		trades[i] = types.Trade{PnL: pnl}
	}
	return trades
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero simulations", Config{ConfidenceLevel: 0.95}},
		{"confidence at one", Config{NumSimulations: 100, ConfidenceLevel: 1}},
		{"confidence at zero", Config{NumSimulations: 100, ConfidenceLevel: 0}},
		{"negative workers", Config{NumSimulations: 100, ConfidenceLevel: 0.95, Workers: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
		})
	}
}

func TestRunRequiresTradesAndCapital(t *testing.T) {
	r, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), nil, 1000)
	assert.ErrorIs(t, err, types.ErrNoTrades)

	_, err = r.Run(context.Background(), tradesFromPnLs(10), 0)
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)

	_, err = r.RunSequential(context.Background(), tradesFromPnLs(10), 1000, 0)
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)
}

func TestPermutationInvariantFinalCapital(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 500
	cfg.Seed = 42
	r, err := New(cfg)
	require.NoError(t, err)

	// No ordering of these trades touches zero, so every replay ends
	// at exactly initial plus the trade sum.
	report, err := r.Run(context.Background(), tradesFromPnLs(100, -50, 200), 1000)
	require.NoError(t, err)

	assert.Equal(t, 500, report.NumSimulations)
	assert.Equal(t, 3, report.NumTrades)
	assert.Equal(t, 25.0, report.Returns.P1)
	assert.Equal(t, 25.0, report.Returns.P50)
	assert.Equal(t, 25.0, report.Returns.P99)
	assert.Equal(t, 1250.0, report.FinalCapitals.P50)
	assert.Equal(t, 100.0, report.ProfitProbability)
	assert.Equal(t, 0.0, report.RuinProbability)
	assert.Equal(t, 25.0, report.ReturnStats.Mean)
	assert.Equal(t, 0.0, report.ReturnStats.StdDev)
}

func TestGuaranteedRuin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 200
	cfg.Seed = 7
	r, err := New(cfg)
	require.NoError(t, err)

	report, err := r.Run(context.Background(), tradesFromPnLs(-10), 5)
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.RuinProbability)
	assert.Equal(t, 0.0, report.ProfitProbability)
	assert.Equal(t, -5.0, report.FinalCapitals.P50)
}

func TestRuinStopsReplayEarly(t *testing.T) {
	r := &Resampler{cfg: Config{Seed: 1}}

	// One block, fixed internal order: the first trade wipes the
	// account and the second must never be applied.
	res := r.replay([][]float64{{-10, 100}}, 5, 0)

	assert.True(t, res.Ruined)
	assert.Equal(t, 1, res.TradesExecuted)
	assert.Equal(t, -5.0, res.FinalCapital)
	assert.Equal(t, []float64{5, -5}, res.EquityPath)
}

func TestReplayTracksDrawdown(t *testing.T) {
	r := &Resampler{cfg: Config{Seed: 1}}

	res := r.replay([][]float64{{100, -60, 20}}, 100, 0)

	require.False(t, res.Ruined)
	assert.Equal(t, 160.0, res.FinalCapital)
	// Peak 200 down to 140
	assert.InDelta(t, 30.0, res.MaxDrawdownPct, 1e-9)
}

func TestBlockResamplingPreservesPairs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 300
	cfg.Seed = 11
	r, err := New(cfg)
	require.NoError(t, err)

	report, err := r.RunSequential(context.Background(), tradesFromPnLs(1, 2, 3, 4), 100, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.BlockSize)
	// Sum is order-independent, so all replays land on 110
	assert.Equal(t, 10.0, report.Returns.P50)
	assert.Equal(t, 110.0, report.FinalCapitals.P50)
}

func TestSeedReproducibility(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 400
	cfg.Seed = 99
	pnls := tradesFromPnLs(120, -80, 45, -260, 90, 30, -15, 200)

	first, err1 := mustRun(t, cfg, pnls)
	second, err2 := mustRun(t, cfg, pnls)
	require.NoError(t, err1)
	require.NoError(t, err2)

	assert.Equal(t, first.Returns, second.Returns)
	assert.Equal(t, first.Drawdowns, second.Drawdowns)
	assert.Equal(t, first.RuinProbability, second.RuinProbability)
	assert.Equal(t, first.VaR95, second.VaR95)
	assert.Equal(t, first.Histogram, second.Histogram)
}

func TestWorkerCountDoesNotChangeResults(t *testing.T) {
	pnls := tradesFromPnLs(120, -80, 45, -260, 90, 30, -15, 200)

	cfg := DefaultConfig()
	cfg.NumSimulations = 400
	cfg.Seed = 99
	cfg.Workers = 1
	serial, err := mustRun(t, cfg, pnls)
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := mustRun(t, cfg, pnls)
	require.NoError(t, err)

	assert.Equal(t, serial.Returns, parallel.Returns)
	assert.Equal(t, serial.RuinProbability, parallel.RuinProbability)
}

func mustRun(t *testing.T, cfg Config, trades []types.Trade) (*types.MonteCarloReport, error) {
	t.Helper()
	r, err := New(cfg)
	require.NoError(t, err)
	return r.Run(context.Background(), trades, 1000)
}

func TestPercentileTableIsMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 1000
	cfg.Seed = 3
	r, err := New(cfg)
	require.NoError(t, err)

	report, err := r.Run(context.Background(),
		tradesFromPnLs(50, -30, 80, -120, 200, -10, 5, -60, 90, 15), 1000)
	require.NoError(t, err)

	p := report.Returns
	ordered := []float64{p.P1, p.P5, p.P10, p.P25, p.P50, p.P75, p.P90, p.P95, p.P99}
	for i := 1; i < len(ordered); i++ {
		assert.LessOrEqual(t, ordered[i-1], ordered[i])
	}

	assert.LessOrEqual(t, report.CVaR95, report.VaR95)
	assert.LessOrEqual(t, report.CVaR99, report.VaR99)
	assert.LessOrEqual(t, report.VaR99, report.VaR95)
	assert.LessOrEqual(t, report.Confidence.Lower, report.Confidence.Upper)
	assert.GreaterOrEqual(t, report.RuinProbability, 0.0)
	assert.LessOrEqual(t, report.RuinProbability, 100.0)
}

func TestHistogramCountsEveryReplay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 250
	cfg.Seed = 5
	r, err := New(cfg)
	require.NoError(t, err)

	report, err := r.Run(context.Background(),
		tradesFromPnLs(50, -30, 80, -120, 200), 1000)
	require.NoError(t, err)

	total := 0
	for _, bin := range report.Histogram {
		total += bin.Count
	}
	assert.Equal(t, 250, total)
}

func TestCancellationStopsRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSimulations = 1_000_000
	cfg.Workers = 2
	r, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, tradesFromPnLs(10, -5), 1000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPercentileIndexClamping(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 1.0, percentile(sorted, 0.01))
	assert.Equal(t, 3.0, percentile(sorted, 0.5))
	assert.Equal(t, 4.0, percentile(sorted, 0.99))
	assert.Equal(t, 4.0, percentile(sorted, 1))
}

func TestExpectedShortfallAveragesTail(t *testing.T) {
	sorted := []float64{-100, -50, 0, 50, 100, 150, 200, 250, 300, 350}
	// cutoff index 0 at p=0.05: mean of {-100}
	assert.Equal(t, -100.0, expectedShortfall(sorted, 0.05))
	// cutoff index 2 at p=0.25: mean of {-100, -50, 0}
	assert.Equal(t, -50.0, expectedShortfall(sorted, 0.25))
}
