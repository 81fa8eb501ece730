package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/engine"
	"github.com/orcvnrln/papersim/internal/montecarlo"
	"github.com/orcvnrln/papersim/internal/types"
)

const (
	numTicks       = 500
	orderEveryTick = 10
)

var symbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// main runs a random trading session against the engine and feeds the
// resulting trades through the Monte Carlo resampler.
func main() {
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the session")
	sims := flag.Int("sims", 2000, "number of Monte Carlo replays")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	log.Info().Int64("seed", *seed).Msg("Starting trading session")

	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize engine")
	}
	eng.Start()

	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = 100 + rng.Float64()*400
	}

	for tick := 0; tick < numTicks; tick++ {
		// Random walk each symbol by up to +/-1%
		for _, s := range symbols {
			prices[s] *= 1 + (rng.Float64()-0.5)*0.02
		}
		snapshot := eng.UpdatePrices(clonePrices(prices))

		if tick%orderEveryTick == 0 {
			placeRandomOrder(eng, rng, prices)
		}

		log.Debug().
			Int("tick", tick).
			Float64("equity", snapshot.Equity).
			Float64("drawdown_pct", snapshot.DrawdownPct).
			Msg("Tick processed")
	}

	// Flatten whatever is still open so every position becomes a trade
	for symbol, pos := range eng.Portfolio().Positions {
		if _, err := eng.PlaceMarketOrder(symbol, types.SideSell, pos.Quantity, prices[symbol]); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to flatten position")
		}
	}

	printSessionSummary(eng)
	runRiskReport(eng, *seed, *sims)
}

func clonePrices(prices map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(prices))
	for k, v := range prices {
		out[k] = v
	}
	return out
}

// placeRandomOrder buys a new position or sells an existing one, with
// the occasional limit or stop order resting near the current price.
func placeRandomOrder(eng *engine.Engine, rng *rand.Rand, prices map[string]float64) {
	symbol := symbols[rng.Intn(len(symbols))]
	price := prices[symbol]
	quantity := float64(rng.Intn(5) + 1)

	side := types.SideBuy
	if pos, ok := eng.Portfolio().Positions[symbol]; ok && rng.Float64() < 0.5 {
		side = types.SideSell
		quantity = pos.Quantity
	}

	var order *types.Order
	var err error
	switch rng.Intn(4) {
	case 0:
		order, err = eng.PlaceLimitOrder(symbol, side, quantity, price*0.99)
	case 1:
		order, err = eng.PlaceStopOrder(symbol, side, quantity, price*1.01)
	default:
		order, err = eng.PlaceMarketOrder(symbol, side, quantity, price)
	}
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("Order not accepted")
		return
	}

	log.Info().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Str("type", string(order.OrderType)).
		Str("status", string(order.Status)).
		Float64("quantity", order.Quantity).
		Msg("Order placed")
}

// printSessionSummary renders the portfolio and trade statistics with
// simple ASCII bar charts.
func printSessionSummary(eng *engine.Engine) {
	portfolio := eng.Portfolio()
	metrics := eng.Metrics()

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("PAPER TRADING SESSION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Portfolio
---------
Cash:             $%.2f
Equity:           $%.2f
Total PnL:        $%.2f
Total Return:     %.2f%%
Peak Equity:      $%.2f
Max Drawdown:     %.2f%%
Closed Trades:    %d

Trade Statistics
----------------
Win Rate:         %.1f%%
Winning / Losing: %d / %d
Avg Win / Loss:   $%.2f / $%.2f
Profit Factor:    %.2f
Best / Worst:     $%.2f / $%.2f

`, portfolio.Cash, portfolio.Equity, portfolio.TotalPnL, portfolio.TotalReturnPct,
		portfolio.PeakEquity, portfolio.DrawdownPct, portfolio.ClosedTrades,
		metrics.WinRate, metrics.WinningTrades, metrics.LosingTrades,
		metrics.AvgWin, metrics.AvgLoss, metrics.ProfitFactor,
		metrics.BestTrade, metrics.WorstTrade)

	// PnL per symbol with a simple ASCII bar chart
	pnlBySymbol := make(map[string]float64)
	for _, trade := range eng.Trades() {
		pnlBySymbol[trade.Symbol] += trade.PnL
	}

	maxAbs := 0.0
	for _, pnl := range pnlBySymbol {
		if math.Abs(pnl) > maxAbs {
			maxAbs = math.Abs(pnl)
		}
	}

	fmt.Println("PnL by Symbol")
	fmt.Println("-------------")
	for symbol, pnl := range pnlBySymbol {
		barLength := 0
		if maxAbs > 0 {
			barLength = int(math.Abs(pnl) / maxAbs * 20)
		}
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-6s: %-20s $%.2f\n", symbol, bar, pnl)
	}
	fmt.Println(strings.Repeat("=", 80))
}

// runRiskReport resamples the session's trades and prints the
// resulting distribution.
func runRiskReport(eng *engine.Engine, seed int64, sims int) {
	trades := eng.Trades()
	if len(trades) == 0 {
		log.Warn().Msg("No closed trades; skipping risk report")
		return
	}

	cfg := montecarlo.DefaultConfig()
	cfg.NumSimulations = sims
	cfg.Seed = seed

	resampler, err := montecarlo.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize resampler")
	}

	report, err := resampler.Run(context.Background(), trades, eng.Config().InitialCapital)
	if err != nil {
		log.Fatal().Err(err).Msg("Risk simulation failed")
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("MONTE CARLO RISK REPORT")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Report:           %s
Replays:          %d over %d trades
Seed:             %d

Return Percentiles
------------------
P5:               %.2f%%
P25:              %.2f%%
P50:              %.2f%%
P75:              %.2f%%
P95:              %.2f%%

Risk
----
Ruin Probability:   %.2f%%
Profit Probability: %.2f%%
VaR 95 / 99:        %.2f%% / %.2f%%
CVaR 95 / 99:       %.2f%% / %.2f%%
Max Drawdown P95:   %.2f%%

`, report.ReportID, report.NumSimulations, report.NumTrades, report.Seed,
		report.Returns.P5, report.Returns.P25, report.Returns.P50,
		report.Returns.P75, report.Returns.P95,
		report.RuinProbability, report.ProfitProbability,
		report.VaR95, report.VaR99, report.CVaR95, report.CVaR99,
		report.Drawdowns.P95)

	// Histogram of final returns
	maxCount := 0
	for _, bin := range report.Histogram {
		if bin.Count > maxCount {
			maxCount = bin.Count
		}
	}
	fmt.Println("Return Distribution")
	fmt.Println("-------------------")
	for _, bin := range report.Histogram {
		barLength := 0
		if maxCount > 0 {
			barLength = bin.Count * 40 / maxCount
		}
		fmt.Printf("%8.2f%% .. %8.2f%% | %s (%d)\n",
			bin.Start, bin.End, strings.Repeat("#", barLength), bin.Count)
	}
	fmt.Println(strings.Repeat("=", 80))
}
