// Package journal records the live session's audit trail: every order
// transition, every closed trade, and periodic equity snapshots. It is
// strictly observational; nothing here feeds back into fills.
package journal

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/orcvnrln/papersim/internal/engine"
	"github.com/orcvnrln/papersim/internal/types"
)

// EquitySnapshot is one periodic sample of the portfolio state.
type EquitySnapshot struct {
	gorm.Model  `json:"-"`
	Equity      float64   `json:"equity"`
	Cash        float64   `json:"cash"`
	PeakEquity  float64   `json:"peak_equity"`
	DrawdownPct float64   `json:"drawdown_pct"`
	Positions   int       `json:"positions"`
	TakenAt     time.Time `json:"taken_at"`
}

// Journal is the gorm-backed session audit store.
type Journal struct {
	db *gorm.DB
}

// New creates a journal over an initialized database connection.
func New(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Attach subscribes the journal to an engine's event stream.
func (j *Journal) Attach(e *engine.Engine) {
	e.Subscribe(func(ev engine.Event) {
		switch {
		case ev.Order != nil:
			_ = j.RecordOrder(ev.Order)
		case ev.Trade != nil:
			_ = j.RecordTrade(ev.Trade)
		}
	})
}

// RecordOrder upserts an order by its order ID, so lifecycle
// transitions overwrite the earlier audit row.
func (j *Journal) RecordOrder(order *types.Order) error {
	var existing types.Order
	err := j.db.Where("order_id = ?", order.OrderID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return j.db.Create(order).Error
	}
	if err != nil {
		return err
	}
	order.ID = existing.ID
	return j.db.Save(order).Error
}

// RecordTrade appends a closed trade.
func (j *Journal) RecordTrade(trade *types.Trade) error {
	return j.db.Create(trade).Error
}

// RecordSnapshot appends an equity snapshot.
func (j *Journal) RecordSnapshot(snap *EquitySnapshot) error {
	return j.db.Create(snap).Error
}

// Orders returns all journaled orders in insertion order.
func (j *Journal) Orders() ([]types.Order, error) {
	var orders []types.Order
	if err := j.db.Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Trades returns all journaled trades in close order.
func (j *Journal) Trades() ([]types.Trade, error) {
	var trades []types.Trade
	if err := j.db.Order("id asc").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// Snapshots returns all equity snapshots in capture order.
func (j *Journal) Snapshots() ([]EquitySnapshot, error) {
	var snaps []EquitySnapshot
	if err := j.db.Order("id asc").Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}
