package types

import (
	"time"

	"gorm.io/gorm"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType distinguishes immediate from passive orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

// OrderStatus is the order lifecycle state. PENDING is the only
// non-terminal state; there is no transition out of a terminal one.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is an intent to trade. Rejected orders are kept for audit,
// with the portfolio untouched.
type Order struct {
	gorm.Model      `json:"-"`
	OrderID         string      `gorm:"uniqueIndex" json:"order_id"`
	Symbol          string      `json:"symbol"`
	Side            OrderSide   `json:"side"`
	OrderType       OrderType   `json:"order_type"`
	Quantity        float64     `json:"quantity"`
	LimitPrice      float64     `json:"limit_price,omitempty"`
	StopPrice       float64     `json:"stop_price,omitempty"`
	Status          OrderStatus `json:"status"`
	ExecutionPrice  float64     `json:"execution_price,omitempty"`
	Commission      float64     `json:"commission,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	FilledAt        *time.Time  `json:"filled_at,omitempty"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty"`
}

// Terminal reports whether the order can no longer change state.
func (o *Order) Terminal() bool {
	return o.Status != OrderStatusPending
}

// Position is the net holding in one symbol. Quantity is always
// positive; a fully closed position is removed, never stored at zero.
type Position struct {
	Symbol                string    `json:"symbol"`
	Quantity              float64   `json:"quantity"`
	AvgPrice              float64   `json:"avg_price"`
	AccumulatedCommission float64   `json:"accumulated_commission"`
	OpenedAt              time.Time `json:"opened_at"`
	CurrentPrice          float64   `json:"current_price,omitempty"`
	UnrealizedPnL         float64   `json:"unrealized_pnl"`
}

// Trade is a completed round trip. Immutable once created.
type Trade struct {
	gorm.Model `json:"-"`
	TradeID    string        `gorm:"uniqueIndex" json:"trade_id"`
	Symbol     string        `json:"symbol"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price"`
	Quantity   float64       `json:"quantity"`
	PnL        float64       `json:"pnl"`
	PnLPercent float64       `json:"pnl_percent"`
	Commission float64       `json:"commission"`
	OpenedAt   time.Time     `json:"opened_at"`
	ClosedAt   time.Time     `json:"closed_at"`
	Duration   time.Duration `json:"duration"`
}

// PortfolioSnapshot is a read-only view of the session state.
type PortfolioSnapshot struct {
	Cash           float64             `json:"cash"`
	Positions      map[string]Position `json:"positions"`
	Equity         float64             `json:"equity"`
	UnrealizedPnL  float64             `json:"unrealized_pnl"`
	TotalPnL       float64             `json:"total_pnl"`
	TotalReturnPct float64             `json:"total_return_pct"`
	PeakEquity     float64             `json:"peak_equity"`
	DrawdownPct    float64             `json:"drawdown_pct"`
	OpenOrders     int                 `json:"open_orders"`
	ClosedTrades   int                 `json:"closed_trades"`
	EquityCurve    []float64           `json:"equity_curve"`
}

// TradeMetrics aggregates the closed-trade history.
type TradeMetrics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// Candle is one OHLCV bar, the input unit for the indicator library
// and the price feed.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}
