package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

const applyRetryDelay = 5 * time.Second

// LedgerWatcher feeds confirmation and failure events from the escrow
// client back into the trade service. Events for the same trade are
// serialized by the service's per-trade lock.
type LedgerWatcher struct {
	logger *slog.Logger

	escrow ports.EscrowClient
	trades ports.TradeService
}

func NewLedgerWatcher(logger *slog.Logger, escrow ports.EscrowClient, trades ports.TradeService) *LedgerWatcher {
	return &LedgerWatcher{
		logger: logger,
		escrow: escrow,
		trades: trades,
	}
}

// Start consumes the event feed until the context is done or the feed
// closes. The escrow client closes the feed only on shutdown, so a
// closed channel ends the watcher; pending submissions are picked up by
// the recovery sweep on the next start.
func (w *LedgerWatcher) Start(ctx context.Context) {
	w.logger.Info("Starting ledger confirmation watcher")

	events := w.escrow.Events()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Ledger confirmation watcher stopped")
			return
		case event, ok := <-events:
			if !ok {
				w.logger.Info("Ledger event feed closed, stopping watcher")
				return
			}
			w.apply(ctx, event)
		}
	}
}

// apply retries a couple of times on transient failures; beyond that the
// recovery worker's periodic re-query is the backstop.
func (w *LedgerWatcher) apply(ctx context.Context, event entities.ConfirmationEvent) {
	for attempt := 1; attempt <= ports.MaxSubmissionAttempts; attempt++ {
		err := w.trades.ApplyLedgerEvent(ctx, event)
		if err == nil {
			return
		}

		w.logger.ErrorContext(ctx, "Failed to apply ledger event",
			"external_ref", event.ExternalRef,
			"status", event.Status,
			"attempt", attempt,
			"error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(applyRetryDelay):
		}
	}

	w.logger.Error("Giving up on ledger event, recovery worker will re-query",
		"external_ref", event.ExternalRef, "status", event.Status)
}
