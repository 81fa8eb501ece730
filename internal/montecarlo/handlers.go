package montecarlo

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/engine"
	"github.com/orcvnrln/papersim/internal/types"
	"github.com/orcvnrln/papersim/pkg/response"
)

// GinHandlers contains HTTP handlers for risk simulations.
type GinHandlers struct {
	engine *engine.Engine
}

// NewGinHandlers creates simulation handlers that source trades from
// the given engine when the request supplies none.
func NewGinHandlers(e *engine.Engine) *GinHandlers {
	return &GinHandlers{engine: e}
}

type simulationRequest struct {
	PnLs            []float64 `json:"pnls"`
	NumSimulations  int       `json:"num_simulations"`
	BlockSize       int       `json:"block_size"`
	ConfidenceLevel float64   `json:"confidence_level"`
	Seed            *int64    `json:"seed"`
	InitialCapital  float64   `json:"initial_capital"`
	Workers         int       `json:"workers"`
}

// RunHandler resamples the session's closed trades (or an explicit
// profit/loss list) into a risk distribution report.
func (h *GinHandlers) RunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req simulationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		trades := h.resolveTrades(req.PnLs)
		cfg := DefaultConfig()
		if req.NumSimulations > 0 {
			cfg.NumSimulations = req.NumSimulations
		}
		if req.ConfidenceLevel > 0 {
			cfg.ConfidenceLevel = req.ConfidenceLevel
		}
		if req.Workers > 0 {
			cfg.Workers = req.Workers
		}
		if req.Seed != nil {
			cfg.Seed = *req.Seed
		} else {
			cfg.Seed = randomSeed()
		}

		capital := req.InitialCapital
		if capital <= 0 {
			capital = h.engine.Config().InitialCapital
		}

		resampler, err := New(cfg)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		blockSize := req.BlockSize
		if blockSize <= 0 {
			blockSize = 1
		}

		report, err := resampler.RunSequential(c.Request.Context(), trades, capital, blockSize)
		response.Handle(c, report, err)
	}
}

func (h *GinHandlers) resolveTrades(pnls []float64) []types.Trade {
	if len(pnls) > 0 {
		trades := make([]types.Trade, len(pnls))
		for i, pnl := range pnls {
			trades[i] = types.Trade{PnL: pnl}
		}
		return trades
	}
	return h.engine.Trades()
}

// randomSeed draws entropy only at the API boundary; the resampler
// itself stays deterministic for a given seed.
func randomSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		log.Warn().Err(err).Msg("falling back to fixed seed")
		return 1
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]))
	if seed == math.MinInt64 {
		seed = 0
	}
	if seed < 0 {
		seed = -seed
	}
	return seed
}
