package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/engine"
)

// Processor periodically captures equity snapshots from the engine
// into the journal. Snapshotting reads state only; fills remain
// entirely tick-driven.
type Processor struct {
	journal  *Journal
	engine   *engine.Engine
	interval time.Duration
}

// NewProcessor creates a snapshot processor with the given cadence.
func NewProcessor(journal *Journal, e *engine.Engine, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Processor{journal: journal, engine: e, interval: interval}
}

// Start begins the snapshot loop and blocks until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "journal_processor").Logger()
	logger.Info().Dur("interval", p.interval).Msg("starting equity snapshot processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down equity snapshot processor")
			return
		case <-ticker.C:
			snap := p.capture()
			if err := p.journal.RecordSnapshot(snap); err != nil {
				logger.Error().Err(err).Msg("failed to record equity snapshot")
			}
		}
	}
}

func (p *Processor) capture() *EquitySnapshot {
	portfolio := p.engine.Portfolio()
	return &EquitySnapshot{
		Equity:      portfolio.Equity,
		Cash:        portfolio.Cash,
		PeakEquity:  portfolio.PeakEquity,
		DrawdownPct: portfolio.DrawdownPct,
		Positions:   len(portfolio.Positions),
		TakenAt:     time.Now(),
	}
}
