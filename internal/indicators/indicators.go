// Package indicators provides pure, stateless technical indicators
// over ordered series. Every function returns a slice the same length
// as its input; positions where the indicator is not yet available
// hold math.NaN rather than zero.
package indicators

import (
	"math"

	"github.com/orcvnrln/papersim/internal/types"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the trailing simple moving average.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA seeds with the SMA of the first period points, then applies the
// exponential recursion with multiplier 2/(period+1).
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	ema := seed / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// RSI applies Wilder smoothing to average gain and loss. A series with
// no losses in the window reads 100.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACDResult holds the MACD line, its signal EMA, and the histogram.
type MACDResult struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// MACD is fast EMA minus slow EMA, with the signal line an EMA of the
// MACD series itself.
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	n := len(values)
	result := MACDResult{
		MACD:      nanSlice(n),
		Signal:    nanSlice(n),
		Histogram: nanSlice(n),
	}
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return result
	}

	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	firstValid := -1
	for i := 0; i < n; i++ {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			result.MACD[i] = fast[i] - slow[i]
			if firstValid < 0 {
				firstValid = i
			}
		}
	}
	if firstValid < 0 {
		return result
	}

	signal := EMA(result.MACD[firstValid:], signalPeriod)
	for i, v := range signal {
		result.Signal[firstValid+i] = v
		if !math.IsNaN(v) {
			result.Histogram[firstValid+i] = result.MACD[firstValid+i] - v
		}
	}
	return result
}

// VWAP is the cumulative typical-price-times-volume over cumulative
// volume. Positions before any volume has traded hold NaN.
func VWAP(candles []types.Candle) []float64 {
	out := nanSlice(len(candles))
	cumPV := 0.0
	cumVol := 0.0
	for i, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		cumPV += typical * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumPV / cumVol
		}
	}
	return out
}

// BollingerBands is the SMA middle band with upper/lower offset by a
// multiple of the rolling population standard deviation.
type BollingerBands struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// Bollinger computes the bands over a trailing window.
func Bollinger(values []float64, period int, stdDevMultiplier float64) BollingerBands {
	n := len(values)
	bands := BollingerBands{
		Upper:  nanSlice(n),
		Middle: SMA(values, period),
		Lower:  nanSlice(n),
	}
	if period <= 0 || n < period {
		return bands
	}

	for i := period - 1; i < n; i++ {
		mean := bands.Middle[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := values[j] - mean
			variance += diff * diff
		}
		stdDev := math.Sqrt(variance / float64(period))
		bands.Upper[i] = mean + stdDev*stdDevMultiplier
		bands.Lower[i] = mean - stdDev*stdDevMultiplier
	}
	return bands
}

// ATR is the Wilder-smoothed true range.
func ATR(candles []types.Candle, period int) []float64 {
	out := nanSlice(len(candles))
	if period <= 0 || len(candles) < period {
		return out
	}

	tr := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			tr[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		tr[i] = math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += tr[i]
	}
	atr := seed / float64(period)
	out[period-1] = atr

	for i := period; i < len(candles); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}

// StochasticResult holds the fast %K line and its %D smoothing.
type StochasticResult struct {
	K []float64 `json:"k"`
	D []float64 `json:"d"`
}

// Stochastic locates the close within the trailing high/low range;
// %D is the SMA of %K over dPeriod.
func Stochastic(candles []types.Candle, kPeriod, dPeriod int) StochasticResult {
	n := len(candles)
	result := StochasticResult{K: nanSlice(n), D: nanSlice(n)}
	if kPeriod <= 0 || dPeriod <= 0 || n < kPeriod {
		return result
	}

	for i := kPeriod - 1; i < n; i++ {
		highest := candles[i-kPeriod+1].High
		lowest := candles[i-kPeriod+1].Low
		for j := i - kPeriod + 2; j <= i; j++ {
			if candles[j].High > highest {
				highest = candles[j].High
			}
			if candles[j].Low < lowest {
				lowest = candles[j].Low
			}
		}
		if highest == lowest {
			result.K[i] = 50
		} else {
			result.K[i] = (candles[i].Close - lowest) / (highest - lowest) * 100
		}
	}

	d := SMA(result.K[kPeriod-1:], dPeriod)
	for i, v := range d {
		result.D[kPeriod-1+i] = v
	}
	return result
}

// SupportResistance flags pivot lows and highs: a point is a pivot if
// no neighbor within lookback bars on either side beats it. Pivot
// indices hold the pivot price, everything else NaN.
func SupportResistance(candles []types.Candle, lookback int) (support, resistance []float64) {
	n := len(candles)
	support = nanSlice(n)
	resistance = nanSlice(n)
	if lookback <= 0 {
		return support, resistance
	}

	for i := lookback; i < n-lookback; i++ {
		pivotLow := true
		pivotHigh := true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if candles[j].Low < candles[i].Low {
				pivotLow = false
			}
			if candles[j].High > candles[i].High {
				pivotHigh = false
			}
		}
		if pivotLow {
			support[i] = candles[i].Low
		}
		if pivotHigh {
			resistance[i] = candles[i].High
		}
	}
	return support, resistance
}
