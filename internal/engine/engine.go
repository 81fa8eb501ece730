package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/types"
)

// quantityEpsilon absorbs float drift when comparing position sizes.
const quantityEpsilon = 1e-9

// Engine is the paper-trading execution simulator: a synchronous state
// machine that converts order intents and price ticks into portfolio
// mutations. All public operations complete atomically before
// returning; passive orders fill only inside UpdatePrices.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	bus eventBus

	active      bool
	cash        float64
	positions   map[string]*types.Position
	orders      []*types.Order
	ordersByID  map[string]*types.Order
	trades      []*types.Trade
	equityCurve []float64
	peakEquity  float64
	startedAt   time.Time
}

// New creates an engine in the stopped state. Configuration errors are
// reported here, never deferred to first use.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	e.resetLocked()
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Subscribe registers a synchronous event subscriber.
func (e *Engine) Subscribe(sub Subscriber) {
	e.bus.subscribe(sub)
}

// Start opens the session for order placement.
func (e *Engine) Start() {
	e.mu.Lock()
	already := e.active
	e.active = true
	if !already {
		e.startedAt = time.Now()
	}
	e.mu.Unlock()

	if !already {
		log.Info().Float64("initial_capital", e.cfg.InitialCapital).Msg("engine started")
		e.bus.publish([]Event{{Type: EventStarted, Timestamp: time.Now()}})
	}
}

// Stop closes the session; order placement fails until restarted.
func (e *Engine) Stop() {
	e.mu.Lock()
	was := e.active
	e.active = false
	e.mu.Unlock()

	if was {
		log.Info().Msg("engine stopped")
		e.bus.publish([]Event{{Type: EventStopped, Timestamp: time.Now()}})
	}
}

// Reset reinitializes the portfolio to the initial capital with empty
// positions, orders and trades, and a single-point equity curve.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()

	log.Info().Msg("engine reset")
	e.bus.publish([]Event{{Type: EventReset, Timestamp: time.Now()}})
}

func (e *Engine) resetLocked() {
	e.cash = e.cfg.InitialCapital
	e.positions = make(map[string]*types.Position)
	e.orders = nil
	e.ordersByID = make(map[string]*types.Order)
	e.trades = nil
	e.equityCurve = []float64{e.cfg.InitialCapital}
	e.peakEquity = e.cfg.InitialCapital
}

// PlaceMarketOrder creates an order and immediately attempts execution
// at the reference price adjusted by slippage. A failed pre-trade check
// records the order as rejected and leaves the portfolio untouched.
func (e *Engine) PlaceMarketOrder(symbol string, side types.OrderSide, quantity, referencePrice float64) (*types.Order, error) {
	if err := validateOrderInputs(symbol, side, quantity, referencePrice); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil, types.ErrEngineInactive
	}

	order := e.newOrder(symbol, side, types.OrderTypeMarket, quantity)
	events := []Event{orderEvent(EventOrderPlaced, order)}

	fillEvents, err := e.fillLocked(order, referencePrice)
	events = append(events, fillEvents...)
	result := *order
	e.mu.Unlock()

	e.bus.publish(events)
	return &result, err
}

// PlaceLimitOrder stores a pending order; a buy fires when the price
// drops to the limit or below, a sell when it rises to the limit or
// above. It never executes synchronously.
func (e *Engine) PlaceLimitOrder(symbol string, side types.OrderSide, quantity, limitPrice float64) (*types.Order, error) {
	return e.placePassiveOrder(symbol, side, types.OrderTypeLimit, quantity, limitPrice)
}

// PlaceStopOrder stores a pending order with the inverted trigger: a
// buy fires at or above the stop price, a sell at or below it.
func (e *Engine) PlaceStopOrder(symbol string, side types.OrderSide, quantity, stopPrice float64) (*types.Order, error) {
	return e.placePassiveOrder(symbol, side, types.OrderTypeStop, quantity, stopPrice)
}

func (e *Engine) placePassiveOrder(symbol string, side types.OrderSide, kind types.OrderType, quantity, price float64) (*types.Order, error) {
	if err := validateOrderInputs(symbol, side, quantity, price); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil, types.ErrEngineInactive
	}

	order := e.newOrder(symbol, side, kind, quantity)
	if kind == types.OrderTypeLimit {
		order.LimitPrice = price
	} else {
		order.StopPrice = price
	}
	result := *order
	e.mu.Unlock()

	log.Debug().
		Str("order_id", order.OrderID).
		Str("symbol", symbol).
		Str("side", string(side)).
		Str("order_type", string(kind)).
		Float64("quantity", quantity).
		Float64("trigger_price", price).
		Msg("passive order placed")

	e.bus.publish([]Event{orderEvent(EventOrderPlaced, &result)})
	return &result, nil
}

// CancelOrder transitions a pending order to cancelled. Terminal
// orders cannot be cancelled.
func (e *Engine) CancelOrder(orderID string) (*types.Order, error) {
	e.mu.Lock()
	order, ok := e.ordersByID[orderID]
	if !ok {
		e.mu.Unlock()
		return nil, types.ErrOrderNotFound
	}
	if order.Terminal() {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: order %s is %s", types.ErrOrderNotCancellable, orderID, order.Status)
	}

	now := time.Now()
	order.Status = types.OrderStatusCancelled
	order.CancelledAt = &now
	result := *order
	e.mu.Unlock()

	e.bus.publish([]Event{orderEvent(EventOrderCancelled, &result)})
	return &result, nil
}

// UpdatePrices is the sole ingress for market data. It refreshes
// unrealized PnL, evaluates pending limit/stop triggers, and appends
// one point to the equity curve. There is no background timer; fills
// are entirely data-driven.
func (e *Engine) UpdatePrices(prices map[string]float64) types.PortfolioSnapshot {
	e.mu.Lock()

	var events []Event
	if e.active {
		for _, order := range e.orders {
			if order.Status != types.OrderStatusPending {
				continue
			}
			price, ok := prices[order.Symbol]
			if !ok || !triggered(order, price) {
				continue
			}
			fillEvents, err := e.fillLocked(order, price)
			events = append(events, fillEvents...)
			if err != nil {
				log.Warn().
					Err(err).
					Str("order_id", order.OrderID).
					Str("symbol", order.Symbol).
					Msg("triggered order rejected")
			}
		}
	}

	for symbol, pos := range e.positions {
		if price, ok := prices[symbol]; ok {
			pos.CurrentPrice = price
		}
		if pos.CurrentPrice > 0 {
			pos.UnrealizedPnL = (pos.CurrentPrice - pos.AvgPrice) * pos.Quantity
		}
	}

	equity := e.equityLocked()
	e.equityCurve = append(e.equityCurve, equity)
	if equity > e.peakEquity {
		e.peakEquity = equity
	}

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	events = append(events, Event{
		Type:      EventPricesUpdated,
		Timestamp: time.Now(),
		Prices:    prices,
		Equity:    equity,
	})
	e.bus.publish(events)
	return snapshot
}

// Portfolio returns a snapshot of the current session state.
func (e *Engine) Portfolio() types.PortfolioSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Metrics computes aggregate statistics strictly from closed trades.
func (e *Engine) Metrics() types.TradeMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := types.TradeMetrics{TotalTrades: len(e.trades)}
	if m.TotalTrades == 0 {
		return m
	}

	var grossWin, grossLoss float64
	m.BestTrade = e.trades[0].PnL
	m.WorstTrade = e.trades[0].PnL
	for _, t := range e.trades {
		if t.PnL > 0 {
			m.WinningTrades++
			grossWin += t.PnL
		} else {
			m.LosingTrades++
			grossLoss += math.Abs(t.PnL)
		}
		if t.PnL > m.BestTrade {
			m.BestTrade = t.PnL
		}
		if t.PnL < m.WorstTrade {
			m.WorstTrade = t.PnL
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	if m.WinningTrades > 0 {
		m.AvgWin = grossWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
		m.ProfitFactor = (m.AvgWin * float64(m.WinningTrades)) / (m.AvgLoss * float64(m.LosingTrades))
	}
	return m
}

// Order returns a copy of the order with the given ID.
func (e *Engine) Order(orderID string) (*types.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	order, ok := e.ordersByID[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

// Orders returns all orders in insertion order.
func (e *Engine) Orders() []types.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Order, len(e.orders))
	for i, o := range e.orders {
		out[i] = *o
	}
	return out
}

// Trades returns the closed-trade history in close order.
func (e *Engine) Trades() []types.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Trade, len(e.trades))
	for i, t := range e.trades {
		out[i] = *t
	}
	return out
}

// EquityCurve returns the append-only equity history.
func (e *Engine) EquityCurve() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, len(e.equityCurve))
	copy(out, e.equityCurve)
	return out
}

// Active reports whether the session accepts orders.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Engine) newOrder(symbol string, side types.OrderSide, kind types.OrderType, quantity float64) *types.Order {
	order := &types.Order{
		OrderID:   "ORD_" + uuid.New().String(),
		Symbol:    symbol,
		Side:      side,
		OrderType: kind,
		Quantity:  quantity,
		Status:    types.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	e.orders = append(e.orders, order)
	e.ordersByID[order.OrderID] = order
	return order
}

// fillLocked executes an order against a reference price, applying
// slippage and commission. On a pre-trade check failure the order is
// marked rejected and the portfolio is left untouched.
func (e *Engine) fillLocked(order *types.Order, referencePrice float64) ([]Event, error) {
	execPrice := referencePrice * (1 + e.cfg.SlippageRate)
	if order.Side == types.SideSell {
		execPrice = referencePrice * (1 - e.cfg.SlippageRate)
	}
	commission := execPrice * order.Quantity * e.cfg.CommissionRate

	if order.Side == types.SideBuy {
		return e.fillBuyLocked(order, execPrice, commission)
	}
	return e.fillSellLocked(order, execPrice, commission)
}

func (e *Engine) fillBuyLocked(order *types.Order, execPrice, commission float64) ([]Event, error) {
	cost := execPrice*order.Quantity/e.cfg.Leverage + commission
	if cost > e.cash {
		return e.rejectLocked(order, fmt.Sprintf("required %.2f exceeds available cash %.2f", cost, e.cash)),
			types.ErrInsufficientFunds
	}

	pos, exists := e.positions[order.Symbol]
	if !exists && len(e.positions) >= e.cfg.MaxPositions {
		return e.rejectLocked(order, fmt.Sprintf("open position limit of %d reached", e.cfg.MaxPositions)),
			types.ErrMaxPositionsExceeded
	}

	if exists {
		// Cost-weighted average entry; partial closes later leave it unchanged.
		totalCost := pos.AvgPrice*pos.Quantity + execPrice*order.Quantity
		pos.Quantity += order.Quantity
		pos.AvgPrice = totalCost / pos.Quantity
		pos.AccumulatedCommission += commission
	} else {
		e.positions[order.Symbol] = &types.Position{
			Symbol:                order.Symbol,
			Quantity:              order.Quantity,
			AvgPrice:              execPrice,
			AccumulatedCommission: commission,
			OpenedAt:              time.Now(),
			CurrentPrice:          execPrice,
		}
	}

	e.cash -= cost
	e.markFilledLocked(order, execPrice, commission)
	return []Event{orderEvent(EventOrderFilled, order)}, nil
}

func (e *Engine) fillSellLocked(order *types.Order, execPrice, commission float64) ([]Event, error) {
	pos, exists := e.positions[order.Symbol]
	if !exists || pos.Quantity+quantityEpsilon < order.Quantity {
		held := 0.0
		if exists {
			held = pos.Quantity
		}
		return e.rejectLocked(order, fmt.Sprintf("sell of %.4f exceeds held quantity %.4f", order.Quantity, held)),
			types.ErrInsufficientPosition
	}

	grossPnL := (execPrice - pos.AvgPrice) * order.Quantity
	entryCommission := pos.AccumulatedCommission * (order.Quantity / pos.Quantity)
	marginReturned := pos.AvgPrice * order.Quantity / e.cfg.Leverage

	now := time.Now()
	trade := &types.Trade{
		TradeID:    "TRD_" + uuid.New().String(),
		Symbol:     order.Symbol,
		EntryPrice: pos.AvgPrice,
		ExitPrice:  execPrice,
		Quantity:   order.Quantity,
		PnL:        grossPnL - commission - entryCommission,
		Commission: commission + entryCommission,
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   now,
		Duration:   now.Sub(pos.OpenedAt),
	}
	trade.PnLPercent = trade.PnL / (pos.AvgPrice * order.Quantity) * 100
	e.trades = append(e.trades, trade)

	e.cash += marginReturned + grossPnL - commission
	pos.Quantity -= order.Quantity
	pos.AccumulatedCommission -= entryCommission
	if pos.Quantity <= quantityEpsilon {
		delete(e.positions, order.Symbol)
	} else if pos.CurrentPrice > 0 {
		pos.UnrealizedPnL = (pos.CurrentPrice - pos.AvgPrice) * pos.Quantity
	}

	e.markFilledLocked(order, execPrice, commission)

	log.Debug().
		Str("trade_id", trade.TradeID).
		Str("symbol", trade.Symbol).
		Float64("entry_price", trade.EntryPrice).
		Float64("exit_price", trade.ExitPrice).
		Float64("pnl", trade.PnL).
		Msg("trade closed")

	return []Event{orderEvent(EventOrderFilled, order), tradeEvent(trade)}, nil
}

func (e *Engine) markFilledLocked(order *types.Order, execPrice, commission float64) {
	now := time.Now()
	order.Status = types.OrderStatusFilled
	order.ExecutionPrice = execPrice
	order.Commission = commission
	order.FilledAt = &now
}

func (e *Engine) rejectLocked(order *types.Order, reason string) []Event {
	order.Status = types.OrderStatusRejected
	order.RejectionReason = reason
	log.Warn().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("reason", reason).
		Msg("order rejected")
	return []Event{orderEvent(EventOrderRejected, order)}
}

func (e *Engine) equityLocked() float64 {
	equity := e.cash
	for _, pos := range e.positions {
		equity += pos.UnrealizedPnL
	}
	return equity
}

func (e *Engine) snapshotLocked() types.PortfolioSnapshot {
	positions := make(map[string]types.Position, len(e.positions))
	var unrealized float64
	for symbol, pos := range e.positions {
		positions[symbol] = *pos
		unrealized += pos.UnrealizedPnL
	}

	equity := e.cash + unrealized
	drawdown := 0.0
	if e.peakEquity > 0 && equity < e.peakEquity {
		drawdown = (e.peakEquity - equity) / e.peakEquity * 100
	}

	openOrders := 0
	for _, o := range e.orders {
		if o.Status == types.OrderStatusPending {
			openOrders++
		}
	}

	curve := make([]float64, len(e.equityCurve))
	copy(curve, e.equityCurve)

	return types.PortfolioSnapshot{
		Cash:           e.cash,
		Positions:      positions,
		Equity:         equity,
		UnrealizedPnL:  unrealized,
		TotalPnL:       equity - e.cfg.InitialCapital,
		TotalReturnPct: (equity - e.cfg.InitialCapital) / e.cfg.InitialCapital * 100,
		PeakEquity:     e.peakEquity,
		DrawdownPct:    drawdown,
		OpenOrders:     openOrders,
		ClosedTrades:   len(e.trades),
		EquityCurve:    curve,
	}
}

func triggered(order *types.Order, price float64) bool {
	switch order.OrderType {
	case types.OrderTypeLimit:
		if order.Side == types.SideBuy {
			return price <= order.LimitPrice
		}
		return price >= order.LimitPrice
	case types.OrderTypeStop:
		if order.Side == types.SideBuy {
			return price >= order.StopPrice
		}
		return price <= order.StopPrice
	default:
		return false
	}
}

func validateOrderInputs(symbol string, side types.OrderSide, quantity, price float64) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", types.ErrInvalidConfiguration)
	}
	if side != types.SideBuy && side != types.SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", types.ErrInvalidConfiguration, side)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %f", types.ErrInvalidConfiguration, quantity)
	}
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %f", types.ErrInvalidConfiguration, price)
	}
	return nil
}
