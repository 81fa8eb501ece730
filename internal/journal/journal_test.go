package journal_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcvnrln/papersim/internal/database"
	"github.com/orcvnrln/papersim/internal/engine"
	"github.com/orcvnrln/papersim/internal/journal"
	"github.com/orcvnrln/papersim/internal/types"
)

var dbCounter int

func newTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	dbCounter++
	dsn := fmt.Sprintf("file:journal_test_%d?mode=memory&cache=shared", dbCounter)
	db, err := database.NewDatabase(dsn)
	require.NoError(t, err)
	return journal.New(db.DB)
}

func TestRecordOrderUpsertsByOrderID(t *testing.T) {
	j := newTestJournal(t)

	order := &types.Order{
		OrderID:   "ORD_test",
		Symbol:    "AAPL",
		Side:      types.SideBuy,
		OrderType: types.OrderTypeLimit,
		Quantity:  5,
		Status:    types.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, j.RecordOrder(order))

	order.Status = types.OrderStatusFilled
	order.ExecutionPrice = 101.5
	require.NoError(t, j.RecordOrder(order))

	orders, err := j.Orders()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, types.OrderStatusFilled, orders[0].Status)
	assert.Equal(t, 101.5, orders[0].ExecutionPrice)
}

func TestRecordTradeAndSnapshotRoundTrip(t *testing.T) {
	j := newTestJournal(t)

	require.NoError(t, j.RecordTrade(&types.Trade{
		TradeID: "TRD_test",
		Symbol:  "AAPL",
		PnL:     42.5,
	}))
	require.NoError(t, j.RecordSnapshot(&journal.EquitySnapshot{
		Equity:  10042.5,
		Cash:    10042.5,
		TakenAt: time.Now(),
	}))

	trades, err := j.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 42.5, trades[0].PnL)

	snaps, err := j.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 10042.5, snaps[0].Equity)
}

func TestAttachJournalsEngineActivity(t *testing.T) {
	j := newTestJournal(t)

	e, err := engine.New(engine.Config{
		InitialCapital: 10000,
		CommissionRate: 0.001,
		Leverage:       1,
		MaxPositions:   5,
	})
	require.NoError(t, err)
	j.Attach(e)
	e.Start()

	_, err = e.PlaceMarketOrder("AAPL", types.SideBuy, 10, 100)
	require.NoError(t, err)
	_, err = e.PlaceMarketOrder("AAPL", types.SideSell, 10, 110)
	require.NoError(t, err)

	orders, err := j.Orders()
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, types.OrderStatusFilled, o.Status)
	}

	trades, err := j.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Symbol)
}
