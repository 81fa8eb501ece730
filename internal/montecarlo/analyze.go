package montecarlo

import (
	"math"
	"sort"
	"time"

	"github.com/orcvnrln/papersim/internal/types"
)

// analyzeResults aggregates per-replay outcomes into the report.
// Percentile lookup uses discrete floor indexing with the index
// clamped to [0, N-1]; no interpolation.
func analyzeResults(results []types.SimulationResult, initialCapital float64, cfg Config) *types.MonteCarloReport {
	n := len(results)
	returns := make([]float64, n)
	drawdowns := make([]float64, n)
	finals := make([]float64, n)

	ruined := 0
	profitable := 0
	for i, res := range results {
		returns[i] = res.FinalReturnPct
		drawdowns[i] = res.MaxDrawdownPct
		finals[i] = res.FinalCapital
		if res.Ruined {
			ruined++
		}
		if res.FinalReturnPct > 0 {
			profitable++
		}
	}

	sort.Float64s(returns)
	sort.Float64s(drawdowns)
	sort.Float64s(finals)

	ciLow := clamp(int(float64(n)*(1-cfg.ConfidenceLevel)/2), n)
	ciHigh := n - 1 - ciLow
	if ciHigh < ciLow {
		ciHigh = ciLow
	}

	return &types.MonteCarloReport{
		NumSimulations: n,
		Seed:           cfg.Seed,
		InitialCapital: initialCapital,
		Returns:        percentileTable(returns),
		Drawdowns:      percentileTable(drawdowns),
		FinalCapitals:  percentileTable(finals),
		ReturnStats:    distributionStats(returns),
		DrawdownStats:  distributionStats(drawdowns),
		Confidence: types.ConfidenceInterval{
			Level: cfg.ConfidenceLevel,
			Lower: returns[ciLow],
			Upper: returns[ciHigh],
		},
		RuinProbability:   float64(ruined) / float64(n) * 100,
		ProfitProbability: float64(profitable) / float64(n) * 100,
		VaR95:             percentile(returns, 0.05),
		VaR99:             percentile(returns, 0.01),
		CVaR95:            expectedShortfall(returns, 0.05),
		CVaR99:            expectedShortfall(returns, 0.01),
		Histogram:         histogram(returns, cfg.HistogramBins),
		GeneratedAt:       time.Now(),
	}
}

// percentile returns the value at the floored discrete index of a
// sorted sample.
func percentile(sorted []float64, p float64) float64 {
	return sorted[clamp(int(float64(len(sorted))*p), len(sorted))]
}

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func percentileTable(sorted []float64) types.PercentileTable {
	return types.PercentileTable{
		P1:  percentile(sorted, 0.01),
		P5:  percentile(sorted, 0.05),
		P10: percentile(sorted, 0.10),
		P25: percentile(sorted, 0.25),
		P50: percentile(sorted, 0.50),
		P75: percentile(sorted, 0.75),
		P90: percentile(sorted, 0.90),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

func distributionStats(sorted []float64) types.DistributionStats {
	n := float64(len(sorted))
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	variance := 0.0
	for _, v := range sorted {
		diff := v - mean
		variance += diff * diff
	}

	return types.DistributionStats{
		Mean:   mean,
		Median: percentile(sorted, 0.50),
		StdDev: math.Sqrt(variance / n),
	}
}

// expectedShortfall averages everything at or below the VaR cutoff.
func expectedShortfall(sorted []float64, p float64) float64 {
	cutoff := clamp(int(float64(len(sorted))*p), len(sorted))
	sum := 0.0
	for i := 0; i <= cutoff; i++ {
		sum += sorted[i]
	}
	return sum / float64(cutoff+1)
}

func histogram(sorted []float64, bins int) []types.HistogramBin {
	if len(sorted) == 0 || bins <= 0 {
		return nil
	}

	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	if hi == lo {
		return []types.HistogramBin{{Start: lo, End: hi, Count: len(sorted)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]types.HistogramBin, bins)
	for i := range out {
		out[i] = types.HistogramBin{
			Start: lo + float64(i)*width,
			End:   lo + float64(i+1)*width,
		}
	}
	for _, v := range sorted {
		idx := clamp(int((v-lo)/width), bins)
		out[idx].Count++
	}
	return out
}
