package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

type stubPendingRepo struct {
	ports.TradesRepository
	pending []ports.PendingPayment
}

func (r *stubPendingRepo) FindPendingPayments(_ context.Context) ([]ports.PendingPayment, error) {
	return r.pending, nil
}

type stubStateEscrow struct {
	ports.EscrowClient
	states map[string]entities.SubmissionState
}

func (e *stubStateEscrow) QueryState(_ context.Context, ref string) (entities.SubmissionState, error) {
	return e.states[ref], nil
}

type recordingService struct {
	ports.TradeService
	mu     sync.Mutex
	events []entities.ConfirmationEvent
}

func (s *recordingService) ApplyLedgerEvent(_ context.Context, event entities.ConfirmationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestRecoverySweep(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	repo := &stubPendingRepo{pending: []ports.PendingPayment{
		{TradeID: "t1", Kind: entities.PaymentDeposit, ExternalRef: "0xconfirmed"},
		{TradeID: "t2", Kind: entities.PaymentAdvance, ExternalRef: "0xstillpending"},
		{TradeID: "t3", Kind: entities.PaymentFinal, ExternalRef: "0xreverted"},
	}}
	escrow := &stubStateEscrow{states: map[string]entities.SubmissionState{
		"0xconfirmed":    {Status: entities.SubmissionConfirmed, Confirmations: 5},
		"0xstillpending": {Status: entities.SubmissionPending},
		"0xreverted":     {Status: entities.SubmissionReverted, Details: "execution reverted"},
	}}
	trades := &recordingService{}

	pr := NewPaymentRecovery(logger, repo, escrow, trades, 0)
	require.NoError(t, pr.sweep(context.Background()))

	// Pending references are left alone; settled outcomes are replayed.
	require.Len(t, trades.events, 2)
	require.Equal(t, "0xconfirmed", trades.events[0].ExternalRef)
	require.Equal(t, entities.SubmissionConfirmed, trades.events[0].Status)
	require.Equal(t, "0xreverted", trades.events[1].ExternalRef)
	require.Equal(t, entities.SubmissionReverted, trades.events[1].Status)
	require.Equal(t, "execution reverted", trades.events[1].Reason)
}

func TestRecoverySweepEmpty(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pr := NewPaymentRecovery(logger, &stubPendingRepo{}, &stubStateEscrow{}, &recordingService{}, 0)
	require.NoError(t, pr.sweep(context.Background()))
}
