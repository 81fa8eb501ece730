package engine

import (
	"fmt"

	"github.com/orcvnrln/papersim/internal/types"
)

// Config controls the friction and capital model of the engine.
type Config struct {
	InitialCapital float64 `json:"initial_capital"`
	CommissionRate float64 `json:"commission_rate"` // fraction of notional
	SlippageRate   float64 `json:"slippage_rate"`   // fraction, always against the order
	Leverage       float64 `json:"leverage"`        // multiplies exposure, not cash outlay
	MaxPositions   int     `json:"max_positions"`   // cap on distinct open symbols
}

// DefaultConfig returns the standard paper-trading session setup.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10000,
		CommissionRate: 0.001,
		SlippageRate:   0.0005,
		Leverage:       1,
		MaxPositions:   5,
	}
}

// Validate reports configuration errors eagerly, at construction time.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %f", types.ErrInvalidConfiguration, c.InitialCapital)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate must not be negative, got %f", types.ErrInvalidConfiguration, c.CommissionRate)
	}
	if c.SlippageRate < 0 {
		return fmt.Errorf("%w: slippage rate must not be negative, got %f", types.ErrInvalidConfiguration, c.SlippageRate)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("%w: leverage must be at least 1, got %f", types.ErrInvalidConfiguration, c.Leverage)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("%w: max positions must be at least 1, got %d", types.ErrInvalidConfiguration, c.MaxPositions)
	}
	return nil
}
