package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

// PaymentRecovery re-queries the ledger for payments left pending, so a
// confirmation that arrived while the process was down (or was dropped
// from the event buffer) is still applied.
type PaymentRecovery struct {
	logger *slog.Logger

	repo   ports.TradesRepository
	escrow ports.EscrowClient
	trades ports.TradeService

	// How often to sweep pending payments.
	interval time.Duration
}

func NewPaymentRecovery(
	logger *slog.Logger,
	repo ports.TradesRepository,
	escrow ports.EscrowClient,
	trades ports.TradeService,
	interval time.Duration,
) *PaymentRecovery {
	return &PaymentRecovery{
		logger:   logger,
		repo:     repo,
		escrow:   escrow,
		trades:   trades,
		interval: interval,
	}
}

// Start runs an immediate sweep and then one per interval.
func (pr *PaymentRecovery) Start(ctx context.Context) {
	pr.logger.Info("Starting payment recovery worker", "interval", pr.interval.String())

	if err := pr.sweep(ctx); err != nil {
		pr.logger.Error("Initial payment recovery sweep failed", "error", err)
	}

	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pr.logger.Info("Payment recovery worker stopped")
			return
		case <-ticker.C:
			if err := pr.sweep(ctx); err != nil {
				pr.logger.Error("Payment recovery sweep failed", "error", err)
			}
		}
	}
}

// sweep queries ledger state for every pending payment reference and
// replays the outcome through the trade service.
func (pr *PaymentRecovery) sweep(ctx context.Context) error {
	pending, err := pr.repo.FindPendingPayments(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		pr.logger.Debug("No pending payments to recover")
		return nil
	}

	recovered := 0
	for _, p := range pending {
		state, err := pr.escrow.QueryState(ctx, p.ExternalRef)
		if err != nil {
			pr.logger.ErrorContext(ctx, "Failed to query ledger state",
				"trade_id", p.TradeID, "external_ref", p.ExternalRef, "error", err)
			continue
		}

		if state.Status == entities.SubmissionPending {
			continue
		}

		event := entities.ConfirmationEvent{
			ExternalRef: p.ExternalRef,
			Status:      state.Status,
			Reason:      state.Details,
			Timestamp:   time.Now().UTC(),
		}
		if err = pr.trades.ApplyLedgerEvent(ctx, event); err != nil {
			pr.logger.ErrorContext(ctx, "Failed to apply recovered ledger state",
				"trade_id", p.TradeID, "external_ref", p.ExternalRef, "error", err)
			continue
		}

		recovered++
		pr.logger.InfoContext(ctx, "Recovered payment state from ledger",
			"trade_id", p.TradeID,
			"kind", p.Kind,
			"external_ref", p.ExternalRef,
			"status", state.Status)
	}

	if recovered > 0 {
		pr.logger.Info("Payment recovery sweep completed", "recovered", recovered, "pending", len(pending))
	}

	return nil
}
