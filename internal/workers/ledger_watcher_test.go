package workers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

type feedEscrow struct {
	ports.EscrowClient
	events chan entities.ConfirmationEvent
}

func (e *feedEscrow) Events() <-chan entities.ConfirmationEvent {
	return e.events
}

func TestLedgerWatcherAppliesEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	escrow := &feedEscrow{events: make(chan entities.ConfirmationEvent, 1)}
	trades := &recordingService{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewLedgerWatcher(logger, escrow, trades).Start(ctx)
		close(done)
	}()

	escrow.events <- entities.ConfirmationEvent{ExternalRef: "0xfeed", Status: entities.SubmissionConfirmed}

	require.Eventually(t, func() bool {
		trades.mu.Lock()
		defer trades.mu.Unlock()
		return len(trades.events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}

	require.Equal(t, "0xfeed", trades.events[0].ExternalRef)
}

func TestLedgerWatcherStopsOnClosedFeed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	escrow := &feedEscrow{events: make(chan entities.ConfirmationEvent)}
	close(escrow.events)

	done := make(chan struct{})
	go func() {
		NewLedgerWatcher(logger, escrow, &recordingService{}).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after the event feed closed")
	}
}
