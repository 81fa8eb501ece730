package engine

import (
	"github.com/gin-gonic/gin"

	"github.com/orcvnrln/papersim/internal/types"
	"github.com/orcvnrln/papersim/pkg/response"
)

// GinHandlers contains HTTP handlers for the trading engine.
type GinHandlers struct {
	engine *Engine
}

// NewGinHandlers creates handlers bound to an engine instance.
func NewGinHandlers(e *Engine) *GinHandlers {
	return &GinHandlers{engine: e}
}

type marketOrderRequest struct {
	Symbol         string          `json:"symbol" binding:"required"`
	Side           types.OrderSide `json:"side" binding:"required"`
	Quantity       float64         `json:"quantity" binding:"required"`
	ReferencePrice float64         `json:"reference_price" binding:"required"`
}

type limitOrderRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Side     types.OrderSide `json:"side" binding:"required"`
	Quantity float64         `json:"quantity" binding:"required"`
	Limit    float64         `json:"limit_price" binding:"required"`
}

type stopOrderRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Side     types.OrderSide `json:"side" binding:"required"`
	Quantity float64         `json:"quantity" binding:"required"`
	Stop     float64         `json:"stop_price" binding:"required"`
}

type priceUpdateRequest struct {
	Prices map[string]float64 `json:"prices" binding:"required"`
}

// StartHandler activates order acceptance and trigger evaluation.
func (h *GinHandlers) StartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.engine.Start()
		response.Success(c, gin.H{"active": true})
	}
}

// StopHandler halts order acceptance; state is preserved.
func (h *GinHandlers) StopHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.engine.Stop()
		response.Success(c, gin.H{"active": false})
	}
}

// ResetHandler restores the engine to its initial capital.
func (h *GinHandlers) ResetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.engine.Reset()
		response.Success(c, h.engine.Portfolio())
	}
}

// MarketOrderHandler places a market order against the supplied
// reference price. Rejected orders come back as 422 with the order in
// the response body.
func (h *GinHandlers) MarketOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req marketOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		order, err := h.engine.PlaceMarketOrder(req.Symbol, req.Side, req.Quantity, req.ReferencePrice)
		response.Handle(c, order, err)
	}
}

// LimitOrderHandler places a pending limit order.
func (h *GinHandlers) LimitOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req limitOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		order, err := h.engine.PlaceLimitOrder(req.Symbol, req.Side, req.Quantity, req.Limit)
		response.Handle(c, order, err)
	}
}

// StopOrderHandler places a pending stop order.
func (h *GinHandlers) StopOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stopOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		order, err := h.engine.PlaceStopOrder(req.Symbol, req.Side, req.Quantity, req.Stop)
		response.Handle(c, order, err)
	}
}

// CancelOrderHandler cancels a pending order by ID.
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.engine.CancelOrder(c.Param("order_id"))
		response.Handle(c, order, err)
	}
}

// GetOrderHandler returns a single order by ID.
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.engine.Order(c.Param("order_id"))
		response.Handle(c, order, err)
	}
}

// ListOrdersHandler returns all orders in placement order.
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Orders())
	}
}

// UpdatePricesHandler feeds a price tick into the engine and returns
// the resulting portfolio snapshot.
func (h *GinHandlers) UpdatePricesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req priceUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
		if len(req.Prices) == 0 {
			response.BadRequest(c, "At least one price is required")
			return
		}

		response.Success(c, h.engine.UpdatePrices(req.Prices))
	}
}

// PortfolioHandler returns the current portfolio snapshot.
func (h *GinHandlers) PortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Portfolio())
	}
}

// MetricsHandler returns aggregate trade statistics.
func (h *GinHandlers) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Metrics())
	}
}

// TradesHandler returns all closed trades.
func (h *GinHandlers) TradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Trades())
	}
}

// EquityCurveHandler returns the tick-by-tick equity series.
func (h *GinHandlers) EquityCurveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, gin.H{"equity_curve": h.engine.EquityCurve()})
	}
}
