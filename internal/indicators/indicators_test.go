package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcvnrln/papersim/internal/types"
)

func candle(high, low, close, volume float64) types.Candle {
	return types.Candle{
		OpenTime: time.Now(),
		Open:     close,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   volume,
	}
}

func assertNaNPrefix(t *testing.T, values []float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assert.True(t, math.IsNaN(values[i]), "expected NaN at index %d", i)
	}
	if n < len(values) {
		assert.False(t, math.IsNaN(values[n]), "expected value at index %d", n)
	}
}

func TestSMAKnownValues(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, out, 5)
	assertNaNPrefix(t, out, 2)
	assert.Equal(t, 2.0, out[2])
	assert.Equal(t, 3.0, out[3])
	assert.Equal(t, 4.0, out[4])
}

func TestSMAShortSeriesIsAllNaN(t *testing.T) {
	out := SMA([]float64{1, 2}, 3)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMAFollowsLinearTrendExactly(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := EMA(values, 3)

	assertNaNPrefix(t, out, 2)
	// With multiplier 1/2 a straight line maps onto itself after the seed
	for i := 2; i < len(out); i++ {
		assert.InDelta(t, float64(i), out[i], 1e-9)
	}
}

func TestRSIAllGainsReadsHundred(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := RSI(values, 3)

	assertNaNPrefix(t, out, 3)
	for i := 3; i < len(out); i++ {
		assert.Equal(t, 100.0, out[i])
	}
}

func TestRSIBalancedSeriesReadsFifty(t *testing.T) {
	out := RSI([]float64{1, 2, 1, 2, 1}, 2)

	assertNaNPrefix(t, out, 2)
	assert.InDelta(t, 50.0, out[2], 1e-9)
	// Wilder smoothing: avgGain (0.5+1)/2, avgLoss 0.5/2
	assert.InDelta(t, 75.0, out[3], 1e-9)
}

func TestMACDValidityWindow(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	result := MACD(values, 12, 26, 9)

	require.Len(t, result.MACD, 50)
	assertNaNPrefix(t, result.MACD, 25)
	// Signal needs 9 MACD points starting at index 25
	assertNaNPrefix(t, result.Signal, 33)
	assert.False(t, math.IsNaN(result.Histogram[33]))
	assert.InDelta(t, result.MACD[40]-result.Signal[40], result.Histogram[40], 1e-9)
}

func TestVWAPCumulative(t *testing.T) {
	candles := []types.Candle{
		candle(12, 8, 10, 100),  // typical 10
		candle(22, 18, 20, 100), // typical 20
	}
	out := VWAP(candles)
	assert.InDelta(t, 10.0, out[0], 1e-9)
	assert.InDelta(t, 15.0, out[1], 1e-9)
}

func TestVWAPZeroVolumePrefixIsNaN(t *testing.T) {
	candles := []types.Candle{
		candle(12, 8, 10, 0),
		candle(12, 8, 10, 50),
	}
	out := VWAP(candles)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 10.0, out[1], 1e-9)
}

func TestBollingerConstantSeriesCollapses(t *testing.T) {
	values := []float64{50, 50, 50, 50, 50}
	bands := Bollinger(values, 3, 2)

	assertNaNPrefix(t, bands.Middle, 2)
	for i := 2; i < len(values); i++ {
		assert.Equal(t, 50.0, bands.Middle[i])
		assert.Equal(t, 50.0, bands.Upper[i])
		assert.Equal(t, 50.0, bands.Lower[i])
	}
}

func TestBollingerUsesPopulationStdDev(t *testing.T) {
	values := []float64{2, 4, 6}
	bands := Bollinger(values, 3, 1)

	// mean 4, population stddev sqrt(8/3)
	want := math.Sqrt(8.0 / 3.0)
	assert.InDelta(t, 4.0+want, bands.Upper[2], 1e-9)
	assert.InDelta(t, 4.0-want, bands.Lower[2], 1e-9)
}

func TestATRConstantRange(t *testing.T) {
	candles := []types.Candle{
		candle(105, 95, 100, 1),
		candle(105, 95, 100, 1),
		candle(105, 95, 100, 1),
		candle(105, 95, 100, 1),
	}
	out := ATR(candles, 3)

	assertNaNPrefix(t, out, 2)
	assert.InDelta(t, 10.0, out[2], 1e-9)
	assert.InDelta(t, 10.0, out[3], 1e-9)
}

func TestATRUsesGaps(t *testing.T) {
	candles := []types.Candle{
		candle(105, 95, 100, 1),
		// Gapped up: true range measured from the prior close
		candle(130, 125, 128, 1),
	}
	out := ATR(candles, 2)
	// TR0 = 10, TR1 = max(5, 30, 25) = 30
	assert.InDelta(t, 20.0, out[1], 1e-9)
}

func TestStochasticCloseAtExtremes(t *testing.T) {
	atHigh := []types.Candle{
		candle(10, 5, 7, 1),
		candle(12, 6, 8, 1),
		candle(14, 7, 14, 1),
	}
	result := Stochastic(atHigh, 3, 1)
	assert.InDelta(t, 100.0, result.K[2], 1e-9)

	atLow := []types.Candle{
		candle(10, 5, 7, 1),
		candle(12, 6, 8, 1),
		candle(14, 5, 5, 1),
	}
	result = Stochastic(atLow, 3, 1)
	assert.InDelta(t, 0.0, result.K[2], 1e-9)
}

func TestStochasticFlatRangeReadsFifty(t *testing.T) {
	flat := []types.Candle{
		candle(10, 10, 10, 1),
		candle(10, 10, 10, 1),
		candle(10, 10, 10, 1),
	}
	result := Stochastic(flat, 3, 1)
	assert.Equal(t, 50.0, result.K[2])
}

func TestStochasticDSmoothsK(t *testing.T) {
	candles := make([]types.Candle, 10)
	for i := range candles {
		candles[i] = candle(10+float64(i), float64(i), 5+float64(i), 1)
	}
	result := Stochastic(candles, 3, 3)

	// D at index 4 is the SMA of K over indices 2..4
	want := (result.K[2] + result.K[3] + result.K[4]) / 3
	assert.InDelta(t, want, result.D[4], 1e-9)
	assert.True(t, math.IsNaN(result.D[3]))
}

func TestSupportResistancePivots(t *testing.T) {
	candles := []types.Candle{
		candle(5, 3, 4, 1),
		candle(4, 2, 3, 1),
		candle(3, 1, 2, 1), // pivot low
		candle(4, 2, 3, 1),
		candle(9, 3, 8, 1), // pivot high
		candle(5, 3, 4, 1),
	}
	support, resistance := SupportResistance(candles, 1)

	require.Len(t, support, 6)
	assert.Equal(t, 1.0, support[2])
	assert.Equal(t, 9.0, resistance[4])

	// Edges inside the lookback margin are never pivots
	assert.True(t, math.IsNaN(support[0]))
	assert.True(t, math.IsNaN(resistance[5]))
	assert.True(t, math.IsNaN(support[3]))
}
