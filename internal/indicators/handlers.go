package indicators

import (
	"github.com/gin-gonic/gin"

	"github.com/orcvnrln/papersim/internal/types"
	"github.com/orcvnrln/papersim/pkg/response"
)

// GinHandlers contains HTTP handlers for indicator computation.
type GinHandlers struct{}

// NewGinHandlers creates indicator handlers.
func NewGinHandlers() *GinHandlers {
	return &GinHandlers{}
}

type indicatorRequest struct {
	Values  []float64      `json:"values"`
	Candles []types.Candle `json:"candles"`

	Period       int     `json:"period"`
	FastPeriod   int     `json:"fast_period"`
	SlowPeriod   int     `json:"slow_period"`
	SignalPeriod int     `json:"signal_period"`
	KPeriod      int     `json:"k_period"`
	DPeriod      int     `json:"d_period"`
	Multiplier   float64 `json:"multiplier"`
	Lookback     int     `json:"lookback"`
}

func (r *indicatorRequest) applyDefaults() {
	if r.Period <= 0 {
		r.Period = 14
	}
	if r.FastPeriod <= 0 {
		r.FastPeriod = 12
	}
	if r.SlowPeriod <= 0 {
		r.SlowPeriod = 26
	}
	if r.SignalPeriod <= 0 {
		r.SignalPeriod = 9
	}
	if r.KPeriod <= 0 {
		r.KPeriod = 14
	}
	if r.DPeriod <= 0 {
		r.DPeriod = 3
	}
	if r.Multiplier <= 0 {
		r.Multiplier = 2
	}
	if r.Lookback <= 0 {
		r.Lookback = 5
	}
}

// ComputeHandler dispatches on the indicator name in the path.
func (h *GinHandlers) ComputeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req indicatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
		req.applyDefaults()

		switch c.Param("name") {
		case "sma":
			response.Success(c, gin.H{"values": SMA(req.Values, req.Period)})
		case "ema":
			response.Success(c, gin.H{"values": EMA(req.Values, req.Period)})
		case "rsi":
			response.Success(c, gin.H{"values": RSI(req.Values, req.Period)})
		case "macd":
			response.Success(c, MACD(req.Values, req.FastPeriod, req.SlowPeriod, req.SignalPeriod))
		case "vwap":
			response.Success(c, gin.H{"values": VWAP(req.Candles)})
		case "bollinger":
			response.Success(c, Bollinger(req.Values, req.Period, req.Multiplier))
		case "atr":
			response.Success(c, gin.H{"values": ATR(req.Candles, req.Period)})
		case "stochastic":
			response.Success(c, Stochastic(req.Candles, req.KPeriod, req.DPeriod))
		case "support_resistance":
			support, resistance := SupportResistance(req.Candles, req.Lookback)
			response.Success(c, gin.H{"support": support, "resistance": resistance})
		default:
			response.NotFound(c, "Unknown indicator")
		}
	}
}
