package types

import "time"

// SimulationResult is the outcome of a single Monte Carlo replay.
// Ruin is a first-class outcome, not an error: the replay stops at the
// point capital reaches zero or below and later trades are not applied.
type SimulationResult struct {
	EquityPath     []float64 `json:"equity_path"`
	FinalCapital   float64   `json:"final_capital"`
	FinalReturnPct float64   `json:"final_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Ruined         bool      `json:"ruined"`
	TradesExecuted int       `json:"trades_executed"`
}

// PercentileTable holds discrete floor-indexed percentiles of a sorted
// sample. No interpolation is applied.
type PercentileTable struct {
	P1  float64 `json:"p1"`
	P5  float64 `json:"p5"`
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// ConfidenceInterval is a central interval on final return percent.
type ConfidenceInterval struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DistributionStats summarizes one sampled quantity. StdDev uses the
// population formula.
type DistributionStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// HistogramBin is one charting bucket over the observed return range.
type HistogramBin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// MonteCarloReport aggregates all replays of one resampling run.
// Probabilities and returns are expressed in percent.
type MonteCarloReport struct {
	ReportID          string             `json:"report_id"`
	NumSimulations    int                `json:"num_simulations"`
	NumTrades         int                `json:"num_trades"`
	BlockSize         int                `json:"block_size,omitempty"`
	Seed              int64              `json:"seed"`
	InitialCapital    float64            `json:"initial_capital"`
	Returns           PercentileTable    `json:"return_percentiles"`
	Drawdowns         PercentileTable    `json:"drawdown_percentiles"`
	FinalCapitals     PercentileTable    `json:"final_capital_percentiles"`
	ReturnStats       DistributionStats  `json:"return_stats"`
	DrawdownStats     DistributionStats  `json:"drawdown_stats"`
	Confidence        ConfidenceInterval `json:"confidence_interval"`
	RuinProbability   float64            `json:"ruin_probability"`
	ProfitProbability float64            `json:"profit_probability"`
	VaR95             float64            `json:"var_95"`
	VaR99             float64            `json:"var_99"`
	CVaR95            float64            `json:"cvar_95"`
	CVaR99            float64            `json:"cvar_99"`
	Histogram         []HistogramBin     `json:"histogram"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
