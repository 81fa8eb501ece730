package types

import "errors"

// Validation failures are returned to the caller as typed errors and
// never corrupt portfolio state. pkg/response maps them to HTTP codes.
var (
	ErrEngineInactive       = errors.New("engine is not active")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrMaxPositionsExceeded = errors.New("maximum number of open positions reached")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotCancellable  = errors.New("order is not cancellable")
	ErrNoTrades             = errors.New("no trades to resample")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
